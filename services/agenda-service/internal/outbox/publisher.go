package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	box       *Outbox
	logger    *slog.Logger
	brokers   []string
	writer    MessageWriter
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(box *Outbox, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	p := &Publisher{
		box:       box,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
	if len(p.brokers) > 0 {
		p.writer = &kafka.Writer{
			Addr:     kafka.TCP(p.brokers...),
			Balancer: &kafka.Hash{},
		}
	}
	return p
}

// WithWriter makes the publisher write through w instead of dialing the brokers.
// Call it before Run.
func (p *Publisher) WithWriter(w MessageWriter) *Publisher {
	p.writer = w
	return p
}

// Enabled is fixed at construction, so it is safe to call while Run is going.
func (p *Publisher) Enabled() bool {
	return p.writer != nil
}

func (p *Publisher) Run(ctx context.Context) {
	if !p.Enabled() {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured); lifecycle events stay local")
		return
	}
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Warn("kafka writer close failed", "err", err)
		}
	}()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Give queued events one last chance before the writer closes.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := p.Flush(flushCtx); err != nil {
				p.logger.Warn("outbox flush on shutdown failed", "err", err, "pending", p.box.Len())
			}
			cancel()
			return
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.logger.Error("outbox publish failed", "err", err, "pending", p.box.Len(), "dropped", p.box.Dropped())
			}
		}
	}
}

// Flush publishes queued events batch by batch until the outbox is empty or a write fails.
// A failed batch goes back to the head of the queue.
func (p *Publisher) Flush(ctx context.Context) error {
	for {
		batch := p.box.take(p.batchSize)
		if len(batch) == 0 {
			return nil
		}
		msgs := make([]kafka.Message, 0, len(batch))
		for _, ev := range batch {
			msgs = append(msgs, message(ctx, ev))
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			p.box.requeue(batch)
			return err
		}
		p.logger.Debug("outbox batch published", "count", len(batch))
	}
}

func message(ctx context.Context, ev Event) kafka.Message {
	meta := kafkax.EventMeta{EventID: ev.EventID, EventType: ev.EventType}
	headers := kafkax.InjectTraceHeaders(ev.Trace.Restore(ctx), meta.Headers())
	return kafka.Message{
		Topic:   ev.EventType,
		Key:     []byte(ev.AggregateID),
		Value:   ev.Payload,
		Headers: headers,
		Time:    ev.CreatedAt,
	}
}
