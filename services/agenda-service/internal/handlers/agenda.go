package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/directory"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/filter"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/store"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/view"
)

type AgendaHandler struct {
	store      *store.Appointments
	controller *lifecycle.Controller
	dir        directory.Directory
	projector  *view.Projector
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewAgendaHandler serves the agenda API. loc decides what "today" is when a request has no date.
func NewAgendaHandler(s *store.Appointments, c *lifecycle.Controller, dir directory.Directory, p *view.Projector, logger *slog.Logger, loc *time.Location) *AgendaHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AgendaHandler{
		store:      s,
		controller: c,
		dir:        dir,
		projector:  p,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

func (h *AgendaHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/providers", h.Providers)
	mux.HandleFunc("/api/v1/appointments", h.List)
	mux.HandleFunc("/api/v1/appointments/get", h.Get)
	mux.HandleFunc("/api/v1/appointments/submit", h.Submit)
	mux.HandleFunc("/api/v1/appointments/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/schedule", h.Schedule)
	mux.HandleFunc("/api/v1/schedule/navigate", h.Navigate)
}

type submitRequest struct {
	lifecycle.Form
	EditingID string `json:"editing_id"`
}

type submitResponse struct {
	Appointment model.Appointment   `json:"appointment"`
	Created     bool                `json:"created"`
	Message     string              `json:"message"`
	Warnings    []lifecycle.Warning `json:"warnings,omitempty"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type cancelResponse struct {
	Appointment model.Appointment `json:"appointment"`
	Changed     bool              `json:"changed"`
	Message     string            `json:"message"`
}

type validationResponse struct {
	Error  string                 `json:"error"`
	Fields []lifecycle.FieldError `json:"fields"`
}

type navigateResponse struct {
	View  view.Mode  `json:"view"`
	Date  model.Date `json:"date"`
	Label string     `json:"label"`
}

func (h *AgendaHandler) Providers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	providers, err := h.dir.List(r.Context())
	if err != nil {
		h.logger.Error("provider list failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, providers)
}

// List returns appointments in insertion order, cancelled ones included.
func (h *AgendaHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	f := filter.ParseProvider(r.URL.Query().Get("provider"))
	httpx.WriteJSON(w, http.StatusOK, f.Apply(h.store.All()))
}

func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "appointment_id required")
		return
	}
	appt, err := h.store.Get(id)
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

func (h *AgendaHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.controller.Submit(r.Context(), req.Form, req.EditingID)
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	status, msg := http.StatusOK, "appointment updated"
	if res.Created {
		status, msg = http.StatusCreated, "appointment created"
	}
	httpx.WriteJSON(w, status, submitResponse{
		Appointment: res.Appointment,
		Created:     res.Created,
		Message:     msg,
		Warnings:    res.Warnings,
	})
}

func (h *AgendaHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "appointment_id required")
		return
	}

	appt, changed, err := h.controller.Cancel(r.Context(), req.AppointmentID)
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	msg := "appointment cancelled"
	if !changed {
		msg = "appointment already cancelled"
	}
	httpx.WriteJSON(w, http.StatusOK, cancelResponse{Appointment: appt, Changed: changed, Message: msg})
}

func (h *AgendaHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	state, ok := h.stateFromQuery(w, r)
	if !ok {
		return
	}
	projector := h.projector
	if raw := r.URL.Query().Get("align"); raw != "" {
		align, err := view.ParseAlign(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		projector = projector.WithAlign(align)
	}
	httpx.WriteJSON(w, http.StatusOK, projector.Project(state, h.store.All()))
}

// Navigate moves the anchor one step and returns where the calendar lands.
func (h *AgendaHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	state, ok := h.stateFromQuery(w, r)
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("dir"))) {
	case "next":
		state = state.Next()
	case "prev":
		state = state.Prev()
	case "today":
		state.Anchor = h.today()
	default:
		httpx.WriteError(w, http.StatusBadRequest, "dir must be prev, next or today")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, navigateResponse{
		View:  state.Mode,
		Date:  state.Anchor,
		Label: state.Label(h.projector.Config()),
	})
}

func (h *AgendaHandler) stateFromQuery(w http.ResponseWriter, r *http.Request) (view.State, bool) {
	q := r.URL.Query()
	mode, err := view.ParseMode(q.Get("view"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return view.State{}, false
	}
	anchor := h.today()
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		if anchor, err = model.ParseDate(raw); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return view.State{}, false
		}
	}
	return view.State{
		Mode:     mode,
		Anchor:   anchor,
		Provider: filter.ParseProvider(q.Get("provider")),
	}, true
}

func (h *AgendaHandler) today() model.Date {
	return model.DateOf(h.now().In(h.loc))
}

func (h *AgendaHandler) writeLifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *lifecycle.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, validationResponse{Error: "missing or invalid fields", Fields: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, lifecycle.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("agenda request failed",
			"err", err,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
