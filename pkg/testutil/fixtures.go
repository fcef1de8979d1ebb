package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	TenantID1 id.TenantID
	TenantID2 id.TenantID
	RuleID1   id.RuleID
	RuleID2   id.RuleID
}{
	TenantID1: "tenant-acme",
	TenantID2: "tenant-globex",
	RuleID1:   "rule-budget-cap",
	RuleID2:   "rule-roas-floor",
}

// ActionBuilder provides a fluent interface for building proposed actions.
type ActionBuilder struct {
	action models.ProposedAction
}

// NewActionBuilder creates a budget change on a campaign with no payload.
func NewActionBuilder() *ActionBuilder {
	return &ActionBuilder{
		action: models.ProposedAction{
			ActionType: "budget_change",
			EntityType: "campaign",
			EntityID:   "cmp_" + uuid.NewString()[:8],
		},
	}
}

func (b *ActionBuilder) WithEntityID(entityID string) *ActionBuilder {
	b.action.EntityID = entityID
	return b
}

func (b *ActionBuilder) WithProposedBudget(budget int64) *ActionBuilder {
	if b.action.ProposedValue == nil {
		b.action.ProposedValue = map[string]any{}
	}
	b.action.ProposedValue[models.KeyBudget] = budget
	return b
}

func (b *ActionBuilder) WithCurrentBudget(budget int64) *ActionBuilder {
	if b.action.CurrentValue == nil {
		b.action.CurrentValue = map[string]any{}
	}
	b.action.CurrentValue[models.KeyBudget] = budget
	return b
}

func (b *ActionBuilder) WithMetric(name string, value float64) *ActionBuilder {
	if b.action.Metrics == nil {
		b.action.Metrics = map[string]any{}
	}
	b.action.Metrics[name] = value
	return b
}

func (b *ActionBuilder) Build() models.ProposedAction {
	return b.action.Clone()
}

// RuleBuilder provides a fluent interface for building enforcement rules.
type RuleBuilder struct {
	rule models.EnforcementRule
}

// NewRuleBuilder creates an enabled advisory budget_exceeded rule for
// TenantID1 with a threshold of 1000.
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{
		rule: models.EnforcementRule{
			TenantID:  TestIDs.TenantID1,
			Type:      models.RuleBudgetExceeded,
			Threshold: decimal.NewFromInt(1000),
			Mode:      models.ModeAdvisory,
			Enabled:   true,
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		},
	}
}

func (b *RuleBuilder) WithID(ruleID id.RuleID) *RuleBuilder {
	b.rule.ID = ruleID
	return b
}

func (b *RuleBuilder) WithTenant(tenantID id.TenantID) *RuleBuilder {
	b.rule.TenantID = tenantID
	return b
}

func (b *RuleBuilder) WithType(t models.RuleType) *RuleBuilder {
	b.rule.Type = t
	return b
}

func (b *RuleBuilder) WithThreshold(threshold string) *RuleBuilder {
	b.rule.Threshold = decimal.RequireFromString(threshold)
	return b
}

func (b *RuleBuilder) WithMode(m models.Mode) *RuleBuilder {
	b.rule.Mode = m
	return b
}

func (b *RuleBuilder) Disabled() *RuleBuilder {
	b.rule.Enabled = false
	return b
}

func (b *RuleBuilder) Build() models.EnforcementRule {
	return b.rule
}
