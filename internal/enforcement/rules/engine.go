// Package rules stores tenant enforcement rules and evaluates proposed
// actions against them.
package rules

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/sentinel"
)

// Store persists rules. Insert returns sentinel.ErrConflict when the rule id
// already exists for the tenant. List returns rules in insertion order.
type Store interface {
	Insert(ctx context.Context, rule models.EnforcementRule) error
	Delete(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (bool, error)
	List(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error)
}

// Engine is the rule engine.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule stores a rule and returns it with its id and creation time set.
// A UUID is assigned when rule.ID is empty.
func (e *Engine) AddRule(ctx context.Context, tenantID id.TenantID, rule models.EnforcementRule) (models.EnforcementRule, error) {
	if tenantID.IsNil() {
		return models.EnforcementRule{}, models.ErrTenantRequired
	}
	rule.TenantID = tenantID
	if rule.ID.IsNil() {
		rule.ID = id.RuleID(e.newID())
	}
	if err := rule.Validate(); err != nil {
		return models.EnforcementRule{}, err
	}
	rule.CreatedAt = e.now().UTC()

	if err := e.store.Insert(ctx, rule); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.EnforcementRule{}, dErrors.Wrap(models.ErrDuplicateRule, dErrors.CodeConflict,
				"rule_id "+rule.ID.String()+" already exists for tenant")
		}
		if errors.Is(err, sentinel.ErrInvalidInput) {
			return models.EnforcementRule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule rejected by store constraints")
		}
		return models.EnforcementRule{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add rule")
	}

	e.logger.InfoContext(ctx, "enforcement rule added",
		"tenant_id", tenantID.String(),
		"rule_id", rule.ID.String(),
		"rule_type", rule.Type.String(),
		"enforcement_mode", rule.Mode.String(),
	)
	return rule, nil
}

// DeleteRule removes a rule. Deleting an unknown rule returns false, nil.
func (e *Engine) DeleteRule(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (bool, error) {
	if tenantID.IsNil() {
		return false, models.ErrTenantRequired
	}
	if ruleID.IsNil() {
		return false, nil
	}
	deleted, err := e.store.Delete(ctx, tenantID, ruleID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete rule")
	}
	if deleted {
		e.logger.InfoContext(ctx, "enforcement rule deleted",
			"tenant_id", tenantID.String(),
			"rule_id", ruleID.String(),
		)
	}
	return deleted, nil
}

// ListRules returns the tenant's rules in insertion order.
func (e *Engine) ListRules(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	rules, err := e.store.List(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules")
	}
	return rules, nil
}

// Evaluate runs every enabled rule in stored order and returns all matches.
// metrics overrides action.Metrics when non-nil.
func (e *Engine) Evaluate(ctx context.Context, tenantID id.TenantID, action models.ProposedAction, metrics map[string]any) ([]models.RuleOutcome, error) {
	rules, err := e.ListRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = action.Metrics
	}
	in := Input{Action: action, Metrics: metrics}

	outcomes := make([]models.RuleOutcome, 0)
	for _, rule := range rules {
		if outcome, ok := Match(rule, in); ok {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, nil
}
