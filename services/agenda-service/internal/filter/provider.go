package filter

import (
	"strings"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// All is the sentinel selection that keeps every provider.
const All = "all"

// ProviderFilter selects appointments by provider id. The zero value behaves like All.
type ProviderFilter string

func ParseProvider(raw string) ProviderFilter {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == All {
		return All
	}
	return ProviderFilter(raw)
}

func (f ProviderFilter) IsAll() bool { return f == "" || f == All }

func (f ProviderFilter) Match(a model.Appointment) bool {
	return f.IsAll() || a.ProviderID == string(f)
}

// Apply keeps the matching appointments in their input order.
func (f ProviderFilter) Apply(in []model.Appointment) []model.Appointment {
	if f.IsAll() {
		out := make([]model.Appointment, len(in))
		copy(out, in)
		return out
	}
	out := make([]model.Appointment, 0, len(in))
	for _, a := range in {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}
