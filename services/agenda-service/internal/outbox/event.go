package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
)

const (
	EventAppointmentCreated   = "agenda.appointment.created.v1"
	EventAppointmentUpdated   = "agenda.appointment.updated.v1"
	EventAppointmentCancelled = "agenda.appointment.cancelled.v1"
)

// Event is the domain event envelope. The Kafka topic name equals EventType.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	Trace         otelx.TraceContext
}

const defaultMaxPending = 1000

// Outbox queues events in memory until the publisher drains them.
// When full, the oldest event is dropped.
type Outbox struct {
	mu      sync.Mutex
	pending []Event
	max     int
	dropped int
	now     func() time.Time
}

func New(maxPending int) *Outbox {
	if maxPending <= 0 {
		maxPending = defaultMaxPending
	}
	return &Outbox{max: maxPending, now: time.Now}
}

// Enqueue stamps the event with an id, time and the caller's trace context.
func (o *Outbox) Enqueue(ctx context.Context, ev Event) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = o.now().UTC()
	}
	ev.Trace = otelx.CaptureTraceContext(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) >= o.max {
		o.pending = o.pending[1:]
		o.dropped++
	}
	o.pending = append(o.pending, ev)
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Pending returns a copy of the queued events, oldest first.
func (o *Outbox) Pending() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Event, len(o.pending))
	copy(out, o.pending)
	return out
}

func (o *Outbox) take(n int) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	if n > len(o.pending) {
		n = len(o.pending)
	}
	batch := make([]Event, n)
	copy(batch, o.pending[:n])
	o.pending = o.pending[n:]
	return batch
}

// requeue puts a failed batch back in front of anything queued since.
func (o *Outbox) requeue(batch []Event) {
	if len(batch) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	merged := make([]Event, 0, len(batch)+len(o.pending))
	merged = append(merged, batch...)
	merged = append(merged, o.pending...)
	if over := len(merged) - o.max; over > 0 {
		merged = merged[over:]
		o.dropped += over
	}
	o.pending = merged
}
