// Package audit is the append-only enforcement audit trail.
//
// Append persists synchronously. A persistence failure never changes the
// caller's decision: it is logged as "audit degraded", counted, and fed to a
// circuit breaker whose state backs the readiness check. Persisted entries
// are optionally fanned out to Kafka on a best-effort basis.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/kafka/producer"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/circuit"
	"trustgate/pkg/platform/middleware/requesttime"
	"trustgate/pkg/requestcontext"
)

const (
	DefaultQueryLimit  = 50
	DefaultMaxLimit    = 500
	DefaultQueryWindow = 7 * 24 * time.Hour
)

// ErrDegraded reports that the audit store is failing. Check the breaker
// state for how long.
var ErrDegraded = errors.New("audit persistence degraded")

// Store is insert-only; entries are never updated or deleted.
type Store interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	// Query returns entries of q.TenantID with Start <= timestamp <= End,
	// newest first, at most q.Limit.
	Query(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, error)
}

type Log struct {
	store     Store
	publisher producer.Publisher
	topic     string
	breaker   *circuit.Breaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func(context.Context) time.Time
	maxLimit  int
}

type Option func(*Log)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = func(context.Context) time.Time { return now() }
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

// WithPublisher fans persisted entries out to topic.
func WithPublisher(p producer.Publisher, topic string) Option {
	return func(l *Log) {
		l.publisher = p
		l.topic = topic
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Log) {
		l.breaker = b
	}
}

func WithMaxLimit(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.maxLimit = n
		}
	}
}

func New(store Store, opts ...Option) *Log {
	l := &Log{
		store:    store,
		breaker:  circuit.New("audit"),
		logger:   slog.Default(),
		now:      requesttime.Now,
		maxLimit: DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append assigns an id and timestamp and persists the entry. The returned
// entry is complete even when persistence failed; the error is ErrDegraded.
func (l *Log) Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	entry = entry.Clone()
	entry.ID = uuid.New()
	entry.Timestamp = l.now(ctx).UTC()
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.Actor == "" {
		entry.Actor = requestcontext.Actor(ctx)
	}

	if err := l.store.Append(ctx, entry); err != nil {
		l.recordFailure(ctx, entry, err)
		return entry, ErrDegraded
	}
	l.recordSuccess(ctx)
	if l.metrics != nil {
		l.metrics.IncrementAuditEntry(string(entry.Event))
	}
	l.publish(ctx, entry)
	return entry, nil
}

func (l *Log) recordFailure(ctx context.Context, entry models.AuditEntry, err error) {
	l.logger.ErrorContext(ctx, "audit degraded",
		"error", err,
		"tenant_id", entry.TenantID.String(),
		"event", string(entry.Event),
		"audit_id", entry.ID.String(),
		"request_id", entry.RequestID,
	)
	if l.metrics != nil {
		l.metrics.IncrementAuditPersistFailure()
	}
	if _, change := l.breaker.RecordFailure(); change.Opened {
		l.logger.ErrorContext(ctx, "audit circuit opened", "breaker", l.breaker.Name())
		if l.metrics != nil {
			l.metrics.SetAuditCircuitOpen(true)
		}
	}
}

func (l *Log) recordSuccess(ctx context.Context) {
	if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.logger.InfoContext(ctx, "audit circuit closed", "breaker", l.breaker.Name())
		if l.metrics != nil {
			l.metrics.SetAuditCircuitOpen(false)
		}
	}
}

func (l *Log) publish(ctx context.Context, entry models.AuditEntry) {
	if l.publisher == nil || l.topic == "" {
		return
	}
	value, err := json.Marshal(entry)
	if err != nil {
		l.logger.WarnContext(ctx, "failed to encode audit entry for publishing", "error", err)
		return
	}
	err = l.publisher.ProduceAsync(&producer.Message{
		Topic: l.topic,
		Key:   []byte(entry.TenantID.String()),
		Value: value,
		Headers: map[string]string{
			"event":      string(entry.Event),
			"request_id": entry.RequestID,
		},
	})
	if err != nil {
		l.logger.WarnContext(ctx, "failed to publish audit entry", "error", err, "audit_id", entry.ID.String())
		if l.metrics != nil {
			l.metrics.IncrementAuditPublishFailure()
		}
	}
}

// Query lists a tenant's entries newest first. A zero end defaults to now,
// a zero start to seven days before end. limit <= 0 means 50; larger
// values are capped at the configured maximum.
func (l *Log) Query(ctx context.Context, tenantID id.TenantID, start, end time.Time, limit int) ([]models.AuditEntry, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	if end.IsZero() {
		end = l.now(ctx).UTC()
	}
	if start.IsZero() {
		start = end.Add(-DefaultQueryWindow)
	}
	if start.After(end) {
		return nil, dErrors.New(dErrors.CodeValidation, "start must not be after end")
	}
	switch {
	case limit <= 0:
		limit = DefaultQueryLimit
	case limit > l.maxLimit:
		limit = l.maxLimit
	}

	entries, err := l.store.Query(ctx, models.AuditQuery{
		TenantID: tenantID,
		Start:    start,
		End:      end,
		Limit:    limit,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit log")
	}
	return entries, nil
}

// Check reports ErrDegraded while the breaker is open. It is registered as
// a readiness check.
func (l *Log) Check(context.Context) error {
	if l.breaker.IsOpen() {
		return ErrDegraded
	}
	return nil
}
