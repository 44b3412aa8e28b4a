package model

// Provider is the clinician an appointment is booked with.
// Color is a display tag only.
type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Color     string `json:"color"`
}
