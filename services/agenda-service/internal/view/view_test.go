package view

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/filter"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

var wednesday = model.Date{Year: 2026, Month: time.January, Day: 28}

func appt(id string, d model.Date, start, provider string) model.Appointment {
	return model.Appointment{ID: id, Draft: model.Draft{
		PatientName: "patient " + id,
		ProviderID:  provider,
		Date:        d,
		StartTime:   start,
		EndTime:     "23:59",
		Type:        model.TypeConsultation,
		Status:      model.StatusConfirmed,
	}}
}

func TestWeekPlacesAppointmentInExactlyOneCell(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	a := appt("a", wednesday, "09:00", "1")

	for _, anchor := range []model.Date{wednesday, wednesday.AddDays(-3), wednesday.AddDays(3)} {
		g := p.Week(anchor, []model.Appointment{a})
		if len(g.Days) != 7 || g.Days[0].Date != wednesday.AddDays(-3) {
			t.Fatalf("anchor %s: unexpected week start %s", anchor, g.Days[0].Date)
		}
		if g.Placed() != 1 {
			t.Fatalf("anchor %s: expected 1 placed, got %d", anchor, g.Placed())
		}
		got := g.Cell(wednesday, "09:00")
		if len(got) != 1 || got[0].ID != "a" || got[0].Tone != "success" {
			t.Fatalf("anchor %s: expected a at Wed 09:00, got %+v", anchor, got)
		}
	}
}

func TestWeekStacksSameSlotInInsertionOrder(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	g := p.Week(wednesday, []model.Appointment{
		appt("first", wednesday, "10:30", "1"),
		appt("second", wednesday, "10:30:00", "2"),
	})
	got := g.Cell(wednesday, "10:30")
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("unexpected stack %+v", got)
	}
}

func TestWeekStartIsConfigurable(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.WeekStart = time.Monday
	g := NewProjector(cfg).Week(wednesday, nil)
	if g.Days[0].Date != wednesday.AddDays(-2) || g.Days[6].Date != wednesday.AddDays(4) {
		t.Fatalf("monday week: got %s..%s", g.Days[0].Date, g.Days[6].Date)
	}
	if len(g.Slots) != 24 || g.Slots[0] != "07:00" || g.Slots[23] != "18:30" {
		t.Fatalf("unexpected slots %v", g.Slots)
	}
}

func TestMisalignedStartIsUnplacedUnderExact(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	appts := []model.Appointment{
		appt("odd", wednesday, "09:15", "1"),
		appt("early", wednesday, "06:30", "1"),
		appt("other-week", wednesday.AddDays(14), "09:15", "1"),
	}
	g := p.Week(wednesday, appts)
	if g.Placed() != 0 {
		t.Fatalf("nothing should be placed, got %d", g.Placed())
	}
	if len(g.Unplaced) != 2 || g.Unplaced[0].ID != "odd" || g.Unplaced[1].ID != "early" {
		t.Fatalf("expected odd and early unplaced, got %+v", g.Unplaced)
	}
	if len(ListForDay(wednesday, appts)) != 2 {
		t.Fatal("list layout must still show misaligned appointments")
	}
}

func TestNearestAlignmentRoundsHalfUp(t *testing.T) {
	p := NewProjector(DefaultGridConfig()).WithAlign(AlignNearest)
	g := p.Day(wednesday, []model.Appointment{
		appt("a", wednesday, "09:15", "1"),
		appt("b", wednesday, "09:14", "1"),
		appt("c", wednesday, "18:50", "1"),
		appt("d", wednesday, "19:00", "1"),
	})
	if got := g.Cell(wednesday, "09:30"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("09:15 should round up to 09:30, got %+v", got)
	}
	if got := g.Cell(wednesday, "09:00"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("09:14 should round down to 09:00, got %+v", got)
	}
	if got := g.Cell(wednesday, "18:30"); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("18:50 should stay in the last slot, got %+v", got)
	}
	if len(g.Unplaced) != 1 || g.Unplaced[0].ID != "d" {
		t.Fatalf("19:00 is after hours, got %+v", g.Unplaced)
	}
}

func TestMonthCoversWholeWeeks(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	g := p.Month(wednesday, []model.Appointment{
		appt("jan", wednesday, "07:00", "1"),
		appt("dec", model.Date{Year: 2025, Month: time.December, Day: 29}, "07:00", "1"),
	})
	if len(g.Days) != 35 {
		t.Fatalf("expected 5 weeks, got %d days", len(g.Days))
	}
	if g.Days[0].Date != (model.Date{Year: 2025, Month: time.December, Day: 28}) || g.Days[0].InMonth {
		t.Fatalf("unexpected leading day %+v", g.Days[0].Date)
	}
	if !g.Days[34].InMonth || g.Days[34].Date.Day != 31 {
		t.Fatalf("unexpected trailing day %+v", g.Days[34].Date)
	}
	if g.Placed() != 2 {
		t.Fatalf("expected both placed, got %d", g.Placed())
	}

	feb := p.Month(model.Date{Year: 2026, Month: time.February, Day: 10}, nil)
	if len(feb.Days) != 28 {
		t.Fatalf("february 2026 fits in 4 weeks, got %d days", len(feb.Days))
	}
}

func TestListSortsStablyByStartTime(t *testing.T) {
	in := []model.Appointment{
		appt("x", wednesday, "09:00", "1"),
		appt("y", wednesday, "14:15", "1"),
		appt("z", wednesday, "07:30", "1"),
		appt("w", wednesday, "09:00", "2"),
	}
	got := List(in)
	want := []string{"z", "x", "w", "y"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}
	if in[0].ID != "x" {
		t.Fatal("input must not be reordered")
	}
}

func TestListForDayRestrictsToDay(t *testing.T) {
	got := ListForDay(wednesday, []model.Appointment{
		appt("a", wednesday.AddDays(1), "07:00", "1"),
		appt("b", wednesday, "08:00", "1"),
	})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected list %+v", got)
	}
}

func TestShift(t *testing.T) {
	d := func(y int, m time.Month, day int) model.Date { return model.Date{Year: y, Month: m, Day: day} }
	cases := []struct {
		anchor model.Date
		mode   Mode
		dir    int
		want   model.Date
	}{
		{d(2026, 1, 28), ModeDay, 1, d(2026, 1, 29)},
		{d(2026, 3, 1), ModeDay, -1, d(2026, 2, 28)},
		{d(2026, 1, 28), ModeWeek, 1, d(2026, 2, 4)},
		{d(2026, 1, 28), ModeWeek, -1, d(2026, 1, 21)},
		{d(2026, 1, 31), ModeMonth, 1, d(2026, 2, 28)},
		{d(2024, 1, 31), ModeMonth, 1, d(2024, 2, 29)},
		{d(2026, 3, 31), ModeMonth, -1, d(2026, 2, 28)},
		{d(2026, 12, 15), ModeMonth, 1, d(2027, 1, 15)},
		{d(2026, 1, 28), ModeList, 1, d(2026, 1, 28)},
	}
	for _, c := range cases {
		if got := Shift(c.anchor, c.mode, c.dir); got != c.want {
			t.Fatalf("Shift(%s, %s, %d) = %s, want %s", c.anchor, c.mode, c.dir, got, c.want)
		}
	}
}

func TestStateTransitionsLeaveDataAlone(t *testing.T) {
	s := NewState(wednesday)
	if s.Mode != ModeWeek || !s.Provider.IsAll() {
		t.Fatalf("unexpected initial state %+v", s)
	}
	cfg := DefaultGridConfig()
	if got := s.Label(cfg); got != "25 Jan - 31 Jan 2026" {
		t.Fatalf("unexpected week label %q", got)
	}
	if got := s.Next().Prev(); got != s {
		t.Fatalf("next then prev should return to %+v, got %+v", s, got)
	}
	if got := s.WithMode(ModeMonth).Label(cfg); got != "January 2026" {
		t.Fatalf("unexpected month label %q", got)
	}
	if got := s.WithMode(ModeDay).Label(cfg); got != "Wed, 28 Jan 2026" {
		t.Fatalf("unexpected day label %q", got)
	}
	for _, raw := range []string{"day", "WEEK", "month", "list", ""} {
		if _, err := ParseMode(raw); err != nil {
			t.Fatalf("ParseMode(%q): %v", raw, err)
		}
	}
	if _, err := ParseMode("year"); err == nil {
		t.Fatal("unknown mode must be rejected")
	}
}

func TestProjectAppliesProviderFilter(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	appts := []model.Appointment{
		appt("a", wednesday, "09:00", "1"),
		appt("b", wednesday, "09:00", "2"),
	}
	out := p.Project(NewState(wednesday).WithProvider(filter.ParseProvider("2")), appts)
	if out.Grid == nil || out.Provider != "2" {
		t.Fatalf("unexpected projection %+v", out)
	}
	if got := out.Grid.Cell(wednesday, "09:00"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}

	list := p.Project(NewState(wednesday).WithMode(ModeList), appts)
	if list.Grid != nil || len(list.List) != 2 || list.Provider != "all" {
		t.Fatalf("unexpected list projection %+v", list)
	}
}

func TestEmptyListProjectionEncodesEmptyArray(t *testing.T) {
	p := NewProjector(DefaultGridConfig())
	other := model.Date{Year: 2026, Month: time.January, Day: 29}
	out := p.Project(NewState(wednesday).WithMode(ModeList), []model.Appointment{appt("a", other, "09:00", "1")})
	if out.List == nil || len(out.List) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", out.List)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"list":[]`) {
		t.Fatalf("empty day must encode as an empty list, got %s", raw)
	}
}
