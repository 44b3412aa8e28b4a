package model

import (
	"fmt"
	"strings"
)

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeEvaluation   AppointmentType = "evaluation"
	TypeUrgent       AppointmentType = "urgent"
)

func ParseAppointmentType(s string) (AppointmentType, error) {
	switch t := AppointmentType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeConsultation, TypeFollowUp, TypeEvaluation, TypeUrgent:
		return t, nil
	}
	return "", fmt.Errorf("unknown appointment type %q", s)
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Draft is an appointment before the store assigns it an id.
//
// ProviderName is a snapshot of the provider's name taken when the draft was
// submitted. It is not kept in sync with the provider directory afterwards.
type Draft struct {
	PatientName  string          `json:"patient_name"`
	ProviderID   string          `json:"provider_id"`
	ProviderName string          `json:"provider_name"`
	Date         Date            `json:"date"`
	StartTime    string          `json:"start_time"`
	EndTime      string          `json:"end_time"`
	Type         AppointmentType `json:"type"`
	Status       Status          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
}

type Appointment struct {
	ID string `json:"id"`
	Draft
}

// SlotKey is the start time truncated to HH:MM, the key the calendar grid matches on.
func (a Appointment) SlotKey() string {
	if len(a.StartTime) >= 5 {
		return a.StartTime[:5]
	}
	return a.StartTime
}

// Tone is the display token a calendar uses to color the appointment.
// Cancelled wins over type.
func Tone(t AppointmentType, s Status) string {
	if s == StatusCancelled {
		return "destructive"
	}
	switch t {
	case TypeConsultation:
		return "success"
	case TypeFollowUp:
		return "info"
	case TypeUrgent:
		return "destructive"
	default:
		return "primary"
	}
}
