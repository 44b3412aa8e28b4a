package view

import (
	"slices"
	"strings"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// List orders appointments by start time; equal times keep their input order.
func List(appts []model.Appointment) []Entry {
	out := make([]Entry, 0, len(appts))
	for _, a := range appts {
		out = append(out, entryOf(a))
	}
	slices.SortStableFunc(out, func(x, y Entry) int {
		return strings.Compare(clockCode(x.StartTime), clockCode(y.StartTime))
	})
	return out
}

// ListForDay is List restricted to one calendar day. An empty day yields an empty, non-nil slice.
func ListForDay(day model.Date, appts []model.Appointment) []Entry {
	same := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Date == day {
			same = append(same, a)
		}
	}
	return List(same)
}

// clockCode turns "HH:MM[:SS]" into "HHMM".
func clockCode(s string) string {
	if len(s) > 5 {
		s = s[:5]
	}
	return strings.ReplaceAll(s, ":", "")
}
