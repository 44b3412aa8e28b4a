package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// Align decides what happens to appointments whose start is not on a slot boundary.
type Align int

const (
	// AlignExact leaves misaligned appointments out of grid layouts.
	AlignExact Align = iota
	// AlignNearest moves them to the nearest slot; half-way rounds up.
	AlignNearest
)

func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return AlignExact, nil
	case "nearest":
		return AlignNearest, nil
	}
	return AlignExact, fmt.Errorf("unknown alignment %q", s)
}

func (a Align) String() string {
	if a == AlignNearest {
		return "nearest"
	}
	return "exact"
}

// GridConfig describes the time axis and week convention of the calendar.
// DayStart, DayEnd and SlotStep are minutes since midnight; slots cover [DayStart, DayEnd).
type GridConfig struct {
	WeekStart time.Weekday
	DayStart  int
	DayEnd    int
	SlotStep  int
	Align     Align
}

// DefaultGridConfig is the clinic's opening hours: Sunday-first weeks, 07:00 to 19:00 in 30 minute slots.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		WeekStart: time.Sunday,
		DayStart:  7 * 60,
		DayEnd:    19 * 60,
		SlotStep:  30,
		Align:     AlignExact,
	}
}

func (c GridConfig) normalized() GridConfig {
	def := DefaultGridConfig()
	if c.SlotStep <= 0 {
		c.SlotStep = def.SlotStep
	}
	if c.DayStart < 0 || c.DayEnd > 24*60 || c.DayEnd <= c.DayStart {
		c.DayStart, c.DayEnd = def.DayStart, def.DayEnd
	}
	if c.WeekStart < time.Sunday || c.WeekStart > time.Saturday {
		c.WeekStart = def.WeekStart
	}
	return c
}

func (c GridConfig) Slots() []string {
	c = c.normalized()
	return availability.Slots(c.DayStart, c.DayEnd, c.SlotStep)
}

// slotIndex maps a start time to its slot. ok is false when the time cannot be placed.
func (c GridConfig) slotIndex(start string) (int, bool) {
	mins, err := availability.ParseClock(start)
	if err != nil || mins < c.DayStart || mins >= c.DayEnd {
		return 0, false
	}
	off := mins - c.DayStart
	n := (c.DayEnd - c.DayStart + c.SlotStep - 1) / c.SlotStep
	switch c.Align {
	case AlignNearest:
		idx := (2*off + c.SlotStep) / (2 * c.SlotStep)
		if idx >= n {
			idx = n - 1
		}
		return idx, true
	default:
		if off%c.SlotStep != 0 {
			return 0, false
		}
		return off / c.SlotStep, true
	}
}

// WeekOf returns the first day of the week that contains d.
func (c GridConfig) WeekOf(d model.Date) model.Date {
	offset := (int(d.Weekday()) - int(c.WeekStart) + 7) % 7
	return d.AddDays(-offset)
}
