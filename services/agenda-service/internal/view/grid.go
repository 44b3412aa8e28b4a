package view

import (
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// Entry is an appointment as a calendar renders it.
type Entry struct {
	model.Appointment
	Tone string `json:"tone"`
}

func entryOf(a model.Appointment) Entry {
	return Entry{Appointment: a, Tone: model.Tone(a.Type, a.Status)}
}

type Cell struct {
	Slot    string  `json:"slot"`
	Entries []Entry `json:"entries,omitempty"`
}

type Day struct {
	Date    model.Date `json:"date"`
	InMonth bool       `json:"in_month"`
	Cells   []Cell     `json:"cells"`
}

// Grid is a day-by-slot layout. Unplaced holds appointments that fall on one of
// the grid's days but whose start time has no slot under the alignment policy.
type Grid struct {
	Slots    []string `json:"slots"`
	Days     []Day    `json:"days"`
	Unplaced []Entry  `json:"unplaced,omitempty"`
}

// Cell returns the entries stacked at (date, slot), in insertion order.
func (g Grid) Cell(date model.Date, slot string) []Entry {
	for _, d := range g.Days {
		if d.Date != date {
			continue
		}
		for _, c := range d.Cells {
			if c.Slot == slot {
				return c.Entries
			}
		}
	}
	return nil
}

// Placed counts the entries shown in any cell.
func (g Grid) Placed() int {
	n := 0
	for _, d := range g.Days {
		for _, c := range d.Cells {
			n += len(c.Entries)
		}
	}
	return n
}

type Projector struct {
	cfg GridConfig
}

func NewProjector(cfg GridConfig) *Projector {
	return &Projector{cfg: cfg.normalized()}
}

func (p *Projector) Config() GridConfig { return p.cfg }

// WithAlign returns a projector sharing this one's axis but using align.
func (p *Projector) WithAlign(align Align) *Projector {
	cfg := p.cfg
	cfg.Align = align
	return &Projector{cfg: cfg}
}

func (p *Projector) Day(anchor model.Date, appts []model.Appointment) Grid {
	return p.layout([]model.Date{anchor}, nil, appts)
}

func (p *Projector) Week(anchor model.Date, appts []model.Appointment) Grid {
	start := p.cfg.WeekOf(anchor)
	days := make([]model.Date, 7)
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return p.layout(days, nil, appts)
}

// Month covers whole weeks from the one holding the 1st to the one holding the last day.
// Days from the neighbouring months are present with InMonth false.
func (p *Projector) Month(anchor model.Date, appts []model.Appointment) Grid {
	first := model.Date{Year: anchor.Year, Month: anchor.Month, Day: 1}
	last := model.Date{Year: anchor.Year, Month: anchor.Month, Day: daysIn(anchor.Year, anchor.Month)}
	end := p.cfg.WeekOf(last).AddDays(6)
	var days []model.Date
	for d := p.cfg.WeekOf(first); !end.Before(d); d = d.AddDays(1) {
		days = append(days, d)
	}
	inMonth := func(d model.Date) bool { return d.Year == anchor.Year && d.Month == anchor.Month }
	return p.layout(days, inMonth, appts)
}

func (p *Projector) layout(dates []model.Date, inMonth func(model.Date) bool, appts []model.Appointment) Grid {
	slots := p.cfg.Slots()
	g := Grid{Slots: slots, Days: make([]Day, len(dates))}
	pos := make(map[model.Date]int, len(dates))
	for i, d := range dates {
		cells := make([]Cell, len(slots))
		for j, s := range slots {
			cells[j].Slot = s
		}
		g.Days[i] = Day{Date: d, InMonth: inMonth == nil || inMonth(d), Cells: cells}
		pos[d] = i
	}

	for _, a := range appts {
		di, ok := pos[a.Date]
		if !ok {
			continue
		}
		si, ok := p.cfg.slotIndex(a.SlotKey())
		if !ok {
			g.Unplaced = append(g.Unplaced, entryOf(a))
			continue
		}
		cell := &g.Days[di].Cells[si]
		cell.Entries = append(cell.Entries, entryOf(a))
	}
	return g
}
