// Package relay drains the audit outbox into the event stream.
package relay

import (
	"context"
	"log/slog"
	"time"

	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/outbox"
	"trustgate/internal/platform/kafka/producer"
)

const (
	DefaultBatchSize    = 100
	DefaultPollInterval = 250 * time.Millisecond
	DefaultRetention    = 24 * time.Hour

	drainTimeout  = 10 * time.Second
	pruneInterval = time.Hour
)

type Option func(*Relay)

func WithTopic(topic string) Option {
	return func(r *Relay) {
		r.topic = topic
	}
}

func WithBatchSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(r *Relay) {
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// WithRetention sets how long published entries are kept before pruning.
func WithRetention(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.retention = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// Relay polls the outbox and publishes each entry synchronously before
// marking it processed, so delivery is at least once.
type Relay struct {
	store        outbox.Store
	publisher    producer.Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	lastPrune time.Time
}

func New(store outbox.Store, publisher producer.Publisher, opts ...Option) *Relay {
	if store == nil {
		panic("relay: outbox store is required")
	}
	if publisher == nil {
		panic("relay: publisher is required")
	}
	r := &Relay{
		store:        store,
		publisher:    publisher,
		topic:        "trustgate.enforcement.audit",
		batchSize:    DefaultBatchSize,
		pollInterval: DefaultPollInterval,
		retention:    DefaultRetention,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start polls until ctx is cancelled, then drains what is left with a
// bounded timeout. It returns ctx.Err().
func (r *Relay) Start(ctx context.Context) error {
	r.logger.InfoContext(ctx, "audit outbox relay started",
		"topic", r.topic,
		"poll_interval", r.pollInterval.String(),
	)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info("audit outbox relay stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.Poll(ctx)
		}
	}
}

// Poll publishes one batch and returns how many entries were published.
func (r *Relay) Poll(ctx context.Context) int {
	entries, err := r.store.FetchUnprocessed(ctx, r.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "failed to fetch outbox entries", "error", err)
			r.countFailure()
		}
		return 0
	}

	published := 0
	if len(entries) > 0 {
		if r.metrics != nil {
			r.metrics.ObserveOutboxBatch(len(entries))
		}
		published = r.publishAll(ctx, entries)
	}

	r.refreshPending(ctx)
	r.maybePrune(ctx)
	return published
}

func (r *Relay) publishAll(ctx context.Context, entries []*outbox.Entry) int {
	published := 0
	for _, entry := range entries {
		if err := r.publish(ctx, entry); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"audit_id", entry.ID.String(),
				"event", entry.Event,
				"error", err,
			)
			r.countFailure()
			continue
		}
		// A failed mark means the entry is published again on the next poll.
		if err := r.store.MarkProcessed(ctx, entry.ID, r.now().UTC()); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox entry processed",
				"audit_id", entry.ID.String(),
				"error", err,
			)
			continue
		}
		published++
		if r.metrics != nil {
			r.metrics.IncrementOutboxPublished()
		}
	}
	return published
}

func (r *Relay) publish(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	err := r.publisher.Produce(ctx, &producer.Message{
		Topic: r.topic,
		Key:   []byte(entry.TenantID),
		Value: entry.Payload,
		Headers: map[string]string{
			"audit_id":   entry.ID.String(),
			"event":      entry.Event,
			"request_id": entry.RequestID,
		},
	})
	if err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.ObserveOutboxPublish(time.Since(start))
	}
	return nil
}

// drain publishes remaining entries after shutdown was requested.
func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for ctx.Err() == nil {
		entries, err := r.store.FetchUnprocessed(ctx, r.batchSize)
		if err != nil {
			r.logger.Error("failed to fetch outbox entries during drain", "error", err)
			return
		}
		if len(entries) == 0 {
			return
		}
		if r.publishAll(ctx, entries) == 0 {
			// Nothing moved; the stream is unavailable.
			return
		}
	}
}

func (r *Relay) refreshPending(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	count, err := r.store.CountPending(ctx)
	if err != nil {
		return
	}
	r.metrics.SetOutboxPending(count)
}

func (r *Relay) maybePrune(ctx context.Context) {
	now := r.now()
	if now.Sub(r.lastPrune) < pruneInterval {
		return
	}
	r.lastPrune = now
	deleted, err := r.store.DeleteProcessedBefore(ctx, now.Add(-r.retention))
	if err != nil {
		r.logger.WarnContext(ctx, "failed to prune outbox", "error", err)
		return
	}
	if deleted > 0 {
		r.logger.InfoContext(ctx, "outbox pruned", "deleted", deleted)
	}
}

func (r *Relay) countFailure() {
	if r.metrics != nil {
		r.metrics.IncrementOutboxPublishFailure()
	}
}
