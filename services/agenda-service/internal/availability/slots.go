package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps treats both intervals as half-open: [a.Start,a.End) overlaps [b.Start,b.End)
// iff a.Start < b.End && b.Start < a.End. Empty or inverted intervals never overlap.
func (a Interval) Overlaps(b Interval) bool {
	if !a.End.After(a.Start) || !b.End.After(b.Start) {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ParseClock reads a 24h "HH:MM" (seconds are accepted and ignored) and returns minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || len(parts[2]) != 2 || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	return h*60 + m, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// At places a wall-clock time on a calendar day (UTC).
func At(d model.Date, clock string) (time.Time, error) {
	mins, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time().Add(time.Duration(mins) * time.Minute), nil
}

// IntervalOf is the appointment's [start,end) on its day.
func IntervalOf(a model.Appointment) (Interval, error) {
	start, err := At(a.Date, a.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := At(a.Date, a.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// Slots returns "HH:MM" labels for slot starts in [dayStart, dayEnd) spaced by step minutes.
func Slots(dayStart, dayEnd, step int) []string {
	if step <= 0 || dayEnd <= dayStart {
		return nil
	}
	labels := make([]string, 0, (dayEnd-dayStart)/step+1)
	for t := dayStart; t < dayEnd; t += step {
		labels = append(labels, FormatClock(t))
	}
	return labels
}

// Overlapping returns the entries of others that share the provider and day of target,
// are not cancelled, and whose time window overlaps target's. target itself (same id) is skipped.
func Overlapping(target model.Appointment, others []model.Appointment) []model.Appointment {
	want, err := IntervalOf(target)
	if err != nil {
		return nil
	}
	var out []model.Appointment
	for _, o := range others {
		if o.ID != "" && o.ID == target.ID {
			continue
		}
		if o.ProviderID != target.ProviderID || o.Date != target.Date || o.Status == model.StatusCancelled {
			continue
		}
		got, err := IntervalOf(o)
		if err != nil {
			continue
		}
		if want.Overlaps(got) {
			out = append(out, o)
		}
	}
	return out
}
