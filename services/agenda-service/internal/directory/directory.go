package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

// Directory is the read-only provider roster.
type Directory interface {
	List(ctx context.Context) ([]model.Provider, error)
	Lookup(ctx context.Context, id string) (model.Provider, bool, error)
}

// Static serves a fixed, ordered roster from memory.
type Static struct {
	providers []model.Provider
	byID      map[string]int
}

func NewStatic(providers []model.Provider) (*Static, error) {
	s := &Static{byID: make(map[string]int, len(providers))}
	for _, p := range providers {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, errors.New("provider id required")
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		s.byID[p.ID] = len(s.providers)
		s.providers = append(s.providers, p)
	}
	return s, nil
}

func (s *Static) List(context.Context) ([]model.Provider, error) {
	out := make([]model.Provider, len(s.providers))
	copy(out, s.providers)
	return out, nil
}

func (s *Static) Lookup(_ context.Context, id string) (model.Provider, bool, error) {
	i, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return model.Provider{}, false, nil
	}
	return s.providers[i], true, nil
}

// DefaultProviders is the clinic's built-in roster.
func DefaultProviders() []model.Provider {
	return []model.Provider{
		{ID: "1", Name: "Dr. Rodrigo Peixoto", Specialty: "Psicologia Clínica", Color: "#0088cc"},
		{ID: "2", Name: "Dra. Ana Silva", Specialty: "Psicologia Infantil", Color: "#22c55e"},
		{ID: "3", Name: "Dr. Carlos Santos", Specialty: "Neuropsicologia", Color: "#8b5cf6"},
	}
}

func Default() *Static {
	s, _ := NewStatic(DefaultProviders())
	return s
}

// FromJSON parses a roster such as
// [{"id":"1","name":"Dr. Rodrigo Peixoto","specialty":"Psicologia Clínica","color":"#0088cc"}].
func FromJSON(raw string) (*Static, error) {
	var providers []model.Provider
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&providers); err != nil {
		return nil, fmt.Errorf("decode providers: %w", err)
	}
	if len(providers) == 0 {
		return nil, errors.New("provider roster is empty")
	}
	return NewStatic(providers)
}
