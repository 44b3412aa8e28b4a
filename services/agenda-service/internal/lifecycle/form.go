package lifecycle

import (
	"errors"
	"strings"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

var ErrValidation = errors.New("invalid appointment")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a form, in field order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid appointment: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// Form is the raw input of the appointment dialog.
type Form struct {
	PatientName string `json:"patient_name"`
	ProviderID  string `json:"provider_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// Draft validates the form. ProviderName is left empty; the controller resolves it.
// Required fields are trimmed; notes are kept exactly as typed.
// End time is not compared with start time.
func (f Form) Draft() (model.Draft, error) {
	verr := &ValidationError{}
	d := model.Draft{
		PatientName: strings.TrimSpace(f.PatientName),
		ProviderID:  strings.TrimSpace(f.ProviderID),
		Notes:       f.Notes,
		Type:        model.TypeConsultation,
		Status:      model.StatusConfirmed,
	}

	if d.PatientName == "" {
		verr.add("patient_name", "required")
	}
	if d.ProviderID == "" {
		verr.add("provider_id", "required")
	}
	if raw := strings.TrimSpace(f.Date); raw == "" {
		verr.add("date", "required")
	} else if date, err := model.ParseDate(raw); err != nil {
		verr.add("date", err.Error())
	} else {
		d.Date = date
	}
	d.StartTime = clockField(verr, "start_time", f.StartTime)
	d.EndTime = clockField(verr, "end_time", f.EndTime)

	if raw := strings.TrimSpace(f.Type); raw != "" {
		t, err := model.ParseAppointmentType(raw)
		if err != nil {
			verr.add("type", err.Error())
		}
		d.Type = t
	}
	if raw := strings.TrimSpace(f.Status); raw != "" {
		s, err := model.ParseStatus(raw)
		if err != nil {
			verr.add("status", err.Error())
		}
		d.Status = s
	}

	if len(verr.Fields) > 0 {
		return model.Draft{}, verr
	}
	return d, nil
}

// clockField normalizes "HH:MM[:SS]" to "HH:MM".
func clockField(verr *ValidationError, field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.add(field, "required")
		return ""
	}
	mins, err := availability.ParseClock(raw)
	if err != nil {
		verr.add(field, err.Error())
		return ""
	}
	return availability.FormatClock(mins)
}
