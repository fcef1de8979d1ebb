// Package service is the enforcement engine: it combines tenant settings,
// rules, the kill switch and confirmation tokens into decisions and records
// every outcome in the audit log.
package service

import (
	"context"
	"log/slog"
	"time"

	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/tracer"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/middleware/requesttime"
)

type SettingsStore interface {
	Get(ctx context.Context, tenantID id.TenantID) (models.EnforcementSettings, error)
	Update(ctx context.Context, tenantID id.TenantID, patch models.SettingsPatch, actor string) (models.EnforcementSettings, error)
}

type RuleEngine interface {
	AddRule(ctx context.Context, tenantID id.TenantID, rule models.EnforcementRule) (models.EnforcementRule, error)
	DeleteRule(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (bool, error)
	ListRules(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error)
	Evaluate(ctx context.Context, tenantID id.TenantID, action models.ProposedAction, metrics map[string]any) ([]models.RuleOutcome, error)
}

type TokenVault interface {
	Issue(ctx context.Context, tenantID id.TenantID, snapshot models.ProposedAction) (*models.ConfirmationToken, error)
	Consume(ctx context.Context, tenantID id.TenantID, token, overrideReason string) (*models.ConsumeResult, error)
}

type KillSwitch interface {
	Set(ctx context.Context, tenantID id.TenantID, enabled bool, reason, actor string) (*models.KillSwitchState, error)
	Get(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error)
}

// AuditLog returns an error only to report degraded persistence; the
// entry is complete either way.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
	Query(ctx context.Context, tenantID id.TenantID, start, end time.Time, limit int) ([]models.AuditEntry, error)
}

// Service is the enforcer.
type Service struct {
	settings   SettingsStore
	rules      RuleEngine
	tokens     TokenVault
	killSwitch KillSwitch
	audit      AuditLog
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	logger     *slog.Logger
	clock      func(context.Context) time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock replaces the request-scoped time used for evaluated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = func(context.Context) time.Time { return now() }
	}
}

// New panics if a dependency is missing; wiring errors should fail at
// startup, not on the first request.
func New(
	settings SettingsStore,
	rules RuleEngine,
	tokens TokenVault,
	killSwitch KillSwitch,
	audit AuditLog,
	opts ...Option,
) *Service {
	if settings == nil {
		panic("service.New: settings store is required")
	}
	if rules == nil {
		panic("service.New: rule engine is required")
	}
	if tokens == nil {
		panic("service.New: token vault is required")
	}
	if killSwitch == nil {
		panic("service.New: kill switch is required")
	}
	if audit == nil {
		panic("service.New: audit log is required")
	}

	s := &Service{
		settings:   settings,
		rules:      rules,
		tokens:     tokens,
		killSwitch: killSwitch,
		audit:      audit,
		tracer:     tracer.NewNoop(),
		logger:     slog.Default(),
		clock:      requesttime.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record appends an audit entry and marks the span when the audit store
// is degraded. It never fails the caller.
func (s *Service) record(ctx context.Context, span tracer.Span, entry models.AuditEntry) {
	if _, err := s.audit.Append(ctx, entry); err != nil && span != nil {
		span.AddEvent(tracer.EventAuditDegraded, tracer.String("event", string(entry.Event)))
	}
}
