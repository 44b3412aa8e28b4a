package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/directory"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrConflict = errors.New("appointment overlaps another booking")

// Events receives one event per successful write.
type Events interface {
	Enqueue(ctx context.Context, ev outbox.Event)
}

type Options struct {
	// RejectOverlaps turns overlap warnings into ErrConflict.
	RejectOverlaps bool
}

type Warning struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	ConflictsWith []string `json:"conflicts_with,omitempty"`
}

type Result struct {
	Appointment model.Appointment
	Created     bool
	// Changed is false when an edit resubmitted the record as it already was.
	Changed  bool
	Warnings []Warning
}

// Controller is the only writer of the appointment store.
type Controller struct {
	// writeMu makes the overlap check and the write one step.
	writeMu sync.Mutex

	store  *store.Appointments
	dir    directory.Directory
	events Events
	logger *slog.Logger
	opts   Options
	tracer trace.Tracer
}

func NewController(s *store.Appointments, dir directory.Directory, events Events, logger *slog.Logger, opts Options) *Controller {
	return &Controller{
		store:  s,
		dir:    dir,
		events: events,
		logger: logger,
		opts:   opts,
		tracer: otelx.Tracer("agenda/lifecycle"),
	}
}

// Submit creates an appointment when editingID is empty and replaces the one
// with that id otherwise. The provider name is looked up again on every submit.
func (c *Controller) Submit(ctx context.Context, form Form, editingID string) (res Result, err error) {
	editingID = strings.TrimSpace(editingID)
	ctx, span := c.tracer.Start(ctx, "lifecycle.Submit", trace.WithAttributes(
		attribute.Bool("agenda.edit", editingID != ""),
	))
	defer func() { endSpan(span, err) }()

	draft, err := form.Draft()
	if err != nil {
		return Result{}, err
	}
	p, ok, err := c.dir.Lookup(ctx, draft.ProviderID)
	if err != nil {
		return Result{}, fmt.Errorf("provider lookup: %w", err)
	}
	if ok {
		draft.ProviderName = p.Name
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var before model.Appointment
	if editingID != "" {
		if before, err = c.store.Get(editingID); err != nil {
			return Result{}, err
		}
	}

	warnings, conflict := c.overlaps(model.Appointment{ID: editingID, Draft: draft})
	if conflict != nil {
		return Result{}, conflict
	}

	var saved model.Appointment
	eventType := outbox.EventAppointmentCreated
	if editingID == "" {
		saved = c.store.Add(draft)
		res = Result{Appointment: saved, Created: true, Changed: true, Warnings: warnings}
	} else {
		if saved, err = c.store.Replace(editingID, draft); err != nil {
			return Result{}, err
		}
		res = Result{Appointment: saved, Changed: saved != before, Warnings: warnings}
		eventType = outbox.EventAppointmentUpdated
	}
	span.SetAttributes(attribute.String("agenda.appointment_id", saved.ID))

	if res.Changed {
		c.emit(ctx, eventType, saved)
	}
	c.logger.Info("appointment saved",
		"appointment_id", saved.ID,
		"provider_id", saved.ProviderID,
		"created", res.Created,
		"changed", res.Changed,
		"warnings", len(warnings),
	)
	return res, nil
}

// Cancel marks the appointment cancelled. Cancelling twice is a no-op; the
// record stays in the store either way. changed reports whether this call did it.
func (c *Controller) Cancel(ctx context.Context, id string) (appt model.Appointment, changed bool, err error) {
	id = strings.TrimSpace(id)
	ctx, span := c.tracer.Start(ctx, "lifecycle.Cancel", trace.WithAttributes(
		attribute.String("agenda.appointment_id", id),
	))
	defer func() { endSpan(span, err) }()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	current, err := c.store.Get(id)
	if err != nil {
		return model.Appointment{}, false, err
	}
	if current.Status == model.StatusCancelled {
		return current, false, nil
	}
	appt, err = c.store.SetStatus(id, model.StatusCancelled)
	if err != nil {
		return model.Appointment{}, false, err
	}
	c.emit(ctx, outbox.EventAppointmentCancelled, appt)
	c.logger.Info("appointment cancelled", "appointment_id", id, "provider_id", appt.ProviderID)
	return appt, true, nil
}

// overlaps checks the candidate against the provider's other live bookings that day.
// A cancelled candidate never conflicts.
func (c *Controller) overlaps(candidate model.Appointment) ([]Warning, error) {
	if candidate.Status == model.StatusCancelled {
		return nil, nil
	}
	clash := availability.Overlapping(candidate, c.store.All())
	if len(clash) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(clash))
	for _, a := range clash {
		ids = append(ids, a.ID)
	}
	if c.opts.RejectOverlaps {
		return nil, fmt.Errorf("%w: %s", ErrConflict, strings.Join(ids, ", "))
	}
	return []Warning{{
		Code:          "overlap",
		Message:       fmt.Sprintf("%d other appointment(s) overlap this time for the provider", len(ids)),
		ConflictsWith: ids,
	}}, nil
}

func (c *Controller) emit(ctx context.Context, eventType string, appt model.Appointment) {
	if c.events == nil {
		return
	}
	payload, err := json.Marshal(appt)
	if err != nil {
		c.logger.Error("failed to build lifecycle event", "err", err, "appointment_id", appt.ID)
		return
	}
	c.events.Enqueue(ctx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
