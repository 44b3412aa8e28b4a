package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

var ErrNotFound = errors.New("appointment not found")

// Appointments is the in-process appointment collection. Records are never
// removed; insertion order is the order every read returns.
type Appointments struct {
	mu    sync.RWMutex
	items []model.Appointment
	index map[string]int
	newID func() string
}

type Option func(*Appointments)

// WithIDGenerator replaces the uuid generator; tests use it to force collisions.
func WithIDGenerator(gen func() string) Option {
	return func(a *Appointments) {
		if gen != nil {
			a.newID = gen
		}
	}
}

func NewAppointments(opts ...Option) *Appointments {
	a := &Appointments{
		index: map[string]int{},
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// All returns a copy of every record, including cancelled ones.
func (a *Appointments) All() []model.Appointment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Appointment, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Appointments) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

func (a *Appointments) Get(id string) (model.Appointment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a.items[i], nil
}

// Add appends draft under a freshly generated id.
func (a *Appointments) Add(draft model.Draft) model.Appointment {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.newID()
	for _, taken := a.index[id]; taken || id == ""; _, taken = a.index[id] {
		id = a.newID()
	}
	appt := model.Appointment{ID: id, Draft: draft}
	a.index[id] = len(a.items)
	a.items = append(a.items, appt)
	return appt
}

// Replace overwrites every field but the id, keeping the record's position.
func (a *Appointments) Replace(id string, draft model.Draft) (model.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	a.items[i] = model.Appointment{ID: id, Draft: draft}
	return a.items[i], nil
}

func (a *Appointments) SetStatus(id string, status model.Status) (model.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	a.items[i].Status = status
	return a.items[i], nil
}
