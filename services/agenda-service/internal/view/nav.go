package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/filter"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
	ModeList  Mode = "list"
)

// InitialMode is what a fresh agenda opens on.
const InitialMode = ModeWeek

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return InitialMode, nil
	case ModeDay, ModeWeek, ModeMonth, ModeList:
		return m, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Shift moves anchor one step in direction dir (negative is back).
// Month steps keep the day of month, clamped to the target month's length.
// List mode has no time axis and never moves.
func Shift(anchor model.Date, mode Mode, dir int) model.Date {
	switch {
	case dir > 0:
		dir = 1
	case dir < 0:
		dir = -1
	default:
		return anchor
	}
	switch mode {
	case ModeDay:
		return anchor.AddDays(dir)
	case ModeWeek:
		return anchor.AddDays(7 * dir)
	case ModeMonth:
		first := time.Date(anchor.Year, anchor.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, dir, 0)
		day := anchor.Day
		if n := daysIn(first.Year(), first.Month()); day > n {
			day = n
		}
		return model.Date{Year: first.Year(), Month: first.Month(), Day: day}
	default:
		return anchor
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// State is what the agenda screen is looking at. Changing it never touches appointment data.
type State struct {
	Mode     Mode
	Anchor   model.Date
	Provider filter.ProviderFilter
}

func NewState(today model.Date) State {
	return State{Mode: InitialMode, Anchor: today, Provider: filter.All}
}

func (s State) WithMode(m Mode) State {
	s.Mode = m
	return s
}

func (s State) WithProvider(f filter.ProviderFilter) State {
	s.Provider = f
	return s
}

func (s State) Next() State {
	s.Anchor = Shift(s.Anchor, s.Mode, 1)
	return s
}

func (s State) Prev() State {
	s.Anchor = Shift(s.Anchor, s.Mode, -1)
	return s
}

// Range is the first and last day the state's view covers.
func (s State) Range(cfg GridConfig) (model.Date, model.Date) {
	switch s.Mode {
	case ModeWeek:
		start := cfg.WeekOf(s.Anchor)
		return start, start.AddDays(6)
	case ModeMonth:
		return model.Date{Year: s.Anchor.Year, Month: s.Anchor.Month, Day: 1},
			model.Date{Year: s.Anchor.Year, Month: s.Anchor.Month, Day: daysIn(s.Anchor.Year, s.Anchor.Month)}
	default:
		return s.Anchor, s.Anchor
	}
}

// Label is the heading shown above the calendar, e.g. "25 Jan - 31 Jan 2026".
func (s State) Label(cfg GridConfig) string {
	from, to := s.Range(cfg)
	switch s.Mode {
	case ModeMonth:
		return from.Time().Format("January 2006")
	case ModeWeek:
		if from.Year != to.Year {
			return from.Time().Format("2 Jan 2006") + " - " + to.Time().Format("2 Jan 2006")
		}
		return from.Time().Format("2 Jan") + " - " + to.Time().Format("2 Jan 2006")
	default:
		return s.Anchor.Time().Format("Mon, 2 Jan 2006")
	}
}
