package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/directory"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/store"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/view"
)

func newServer(t *testing.T, opts lifecycle.Options) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	s := store.NewAppointments()
	dir := directory.Default()
	c := lifecycle.NewController(s, dir, outbox.New(10), logger, opts)
	h := NewAgendaHandler(s, c, dir, view.NewProjector(view.DefaultGridConfig()), logger, time.UTC)
	h.now = func() time.Time { return time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC) }
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func decode[T any](t *testing.T, rw *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rw.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rw.Body.String(), err)
	}
	return v
}

const createBody = `{"patient_name":"A. Ferreira","provider_id":"1","date":"2026-01-28","start_time":"07:00","end_time":"07:30","type":"consultation","status":"confirmed"}`

func TestSubmitCancelFlow(t *testing.T) {
	h := newServer(t, lifecycle.Options{})

	rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", createBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	created := decode[submitResponse](t, rw)
	if created.Appointment.ProviderName != "Dr. Rodrigo Peixoto" || created.Message != "appointment created" {
		t.Fatalf("unexpected create response %+v", created)
	}
	id := created.Appointment.ID

	rw = do(t, h, http.MethodGet, "/api/v1/appointments/get?appointment_id="+id, "")
	if rw.Code != http.StatusOK || decode[model.Appointment](t, rw).ID != id {
		t.Fatalf("get failed: %d %s", rw.Code, rw.Body.String())
	}

	for i := 0; i < 2; i++ {
		rw = do(t, h, http.MethodPost, "/api/v1/appointments/cancel", `{"appointment_id":"`+id+`"}`)
		if rw.Code != http.StatusOK {
			t.Fatalf("cancel %d: expected 200, got %d", i, rw.Code)
		}
		if got := decode[cancelResponse](t, rw); got.Appointment.Status != model.StatusCancelled || got.Changed != (i == 0) {
			t.Fatalf("cancel %d: unexpected %+v", i, got)
		}
	}

	rw = do(t, h, http.MethodGet, "/api/v1/appointments", "")
	list := decode[[]model.Appointment](t, rw)
	if len(list) != 1 || list[0].Status != model.StatusCancelled {
		t.Fatalf("cancelled record must stay listed: %+v", list)
	}
}

func TestSubmitEdit(t *testing.T) {
	h := newServer(t, lifecycle.Options{})
	id := decode[submitResponse](t, do(t, h, http.MethodPost, "/api/v1/appointments/submit", createBody)).Appointment.ID

	edit := strings.Replace(createBody, `"provider_id":"1"`, `"provider_id":"3"`, 1)
	edit = strings.TrimSuffix(edit, "}") + `,"editing_id":"` + id + `"}`
	rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", edit)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	got := decode[submitResponse](t, rw)
	if got.Appointment.ID != id || got.Appointment.ProviderName != "Dr. Carlos Santos" || got.Created {
		t.Fatalf("unexpected edit response %+v", got)
	}

	missing := strings.TrimSuffix(createBody, "}") + `,"editing_id":"nope"}`
	if rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", missing); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestSubmitErrors(t *testing.T) {
	h := newServer(t, lifecycle.Options{RejectOverlaps: true})

	rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", `{"patient_name":"","provider_id":"1"}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
	if v := decode[validationResponse](t, rw); len(v.Fields) != 4 || v.Fields[0].Field != "patient_name" {
		t.Fatalf("unexpected validation body %+v", v)
	}
	if rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", `{"surprise":true}`); rw.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", rw.Code)
	}
	if rw := do(t, h, http.MethodGet, "/api/v1/appointments/submit", ""); rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}

	do(t, h, http.MethodPost, "/api/v1/appointments/submit", createBody)
	if rw := do(t, h, http.MethodPost, "/api/v1/appointments/submit", createBody); rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
	if rw := do(t, h, http.MethodPost, "/api/v1/appointments/cancel", `{"appointment_id":"nope"}`); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestListFiltersByProvider(t *testing.T) {
	h := newServer(t, lifecycle.Options{})
	do(t, h, http.MethodPost, "/api/v1/appointments/submit", createBody)
	do(t, h, http.MethodPost, "/api/v1/appointments/submit", strings.Replace(createBody, `"provider_id":"1"`, `"provider_id":"2"`, 1))

	if got := decode[[]model.Appointment](t, do(t, h, http.MethodGet, "/api/v1/appointments?provider=2", "")); len(got) != 1 || got[0].ProviderID != "2" {
		t.Fatalf("unexpected filtered list %+v", got)
	}
	all := decode[[]model.Appointment](t, do(t, h, http.MethodGet, "/api/v1/appointments?provider=all", ""))
	if len(all) != 2 || all[0].ProviderID != "1" || all[1].ProviderID != "2" {
		t.Fatalf("unexpected full list %+v", all)
	}
	if got := decode[[]model.Provider](t, do(t, h, http.MethodGet, "/api/v1/providers", "")); len(got) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(got))
	}
}

func TestScheduleWeekAndList(t *testing.T) {
	h := newServer(t, lifecycle.Options{})
	for _, start := range []string{"09:00", "14:15", "07:30"} {
		body := strings.Replace(createBody, `"start_time":"07:00"`, `"start_time":"`+start+`"`, 1)
		do(t, h, http.MethodPost, "/api/v1/appointments/submit", body)
	}

	rw := do(t, h, http.MethodGet, "/api/v1/schedule", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	week := decode[view.Projection](t, rw)
	if week.Mode != view.ModeWeek || week.Grid == nil || week.Label != "25 Jan - 31 Jan 2026" {
		t.Fatalf("unexpected projection %+v", week)
	}
	if got := week.Grid.Cell(model.Date{Year: 2026, Month: time.January, Day: 28}, "09:00"); len(got) != 1 {
		t.Fatalf("expected one entry at Wed 09:00, got %d", len(got))
	}
	if len(week.Grid.Unplaced) != 1 || week.Grid.Unplaced[0].StartTime != "14:15" {
		t.Fatalf("14:15 should be unplaced, got %+v", week.Grid.Unplaced)
	}

	nearest := decode[view.Projection](t, do(t, h, http.MethodGet, "/api/v1/schedule?align=nearest", ""))
	if len(nearest.Grid.Unplaced) != 0 || nearest.Align != "nearest" {
		t.Fatalf("nearest alignment should place everything: %+v", nearest.Grid.Unplaced)
	}

	list := decode[view.Projection](t, do(t, h, http.MethodGet, "/api/v1/schedule?view=list&date=2026-01-28", ""))
	var starts []string
	for _, e := range list.List {
		starts = append(starts, e.StartTime)
	}
	if strings.Join(starts, ",") != "07:30,09:00,14:15" {
		t.Fatalf("unexpected list order %v", starts)
	}

	for _, bad := range []string{"?view=year", "?date=28-01-2026", "?align=round"} {
		if rw := do(t, h, http.MethodGet, "/api/v1/schedule"+bad, ""); rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", bad, rw.Code)
		}
	}
}

func TestNavigate(t *testing.T) {
	h := newServer(t, lifecycle.Options{})
	rw := do(t, h, http.MethodGet, "/api/v1/schedule/navigate?view=month&date=2026-01-31&dir=next", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	got := decode[navigateResponse](t, rw)
	if got.Date.String() != "2026-02-28" || got.Label != "February 2026" {
		t.Fatalf("unexpected navigation %+v", got)
	}

	got = decode[navigateResponse](t, do(t, h, http.MethodGet, "/api/v1/schedule/navigate?view=day&date=2026-03-01&dir=prev", ""))
	if got.Date.String() != "2026-02-28" {
		t.Fatalf("unexpected day navigation %+v", got)
	}
	got = decode[navigateResponse](t, do(t, h, http.MethodGet, "/api/v1/schedule/navigate?view=week&date=2026-03-01&dir=today", ""))
	if got.Date.String() != "2026-01-28" {
		t.Fatalf("today should come from the clock, got %+v", got)
	}
	if rw := do(t, h, http.MethodGet, "/api/v1/schedule/navigate?dir=sideways", ""); rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}
