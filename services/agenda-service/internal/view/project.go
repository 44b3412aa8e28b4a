package view

import (
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/filter"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// Projection is one rendered view: a grid for day/week/month, a sorted list for list mode.
type Projection struct {
	Mode     Mode       `json:"view"`
	Anchor   model.Date `json:"date"`
	Provider string     `json:"provider"`
	Label    string     `json:"label"`
	Align    string     `json:"align"`
	Grid     *Grid      `json:"grid,omitempty"`
	List     []Entry    `json:"list"`
}

// Project filters appts by the state's provider and lays them out for its mode.
func (p *Projector) Project(s State, appts []model.Appointment) Projection {
	if s.Mode == "" {
		s.Mode = InitialMode
	}
	visible := s.Provider.Apply(appts)
	out := Projection{
		Mode:     s.Mode,
		Anchor:   s.Anchor,
		Provider: string(s.Provider),
		Label:    s.Label(p.cfg),
		Align:    p.cfg.Align.String(),
	}
	if s.Provider.IsAll() {
		out.Provider = filter.All
	}

	var g Grid
	switch s.Mode {
	case ModeDay:
		g = p.Day(s.Anchor, visible)
	case ModeMonth:
		g = p.Month(s.Anchor, visible)
	case ModeList:
		out.List = ListForDay(s.Anchor, visible)
		return out
	default:
		g = p.Week(s.Anchor, visible)
	}
	out.Grid = &g
	return out
}
