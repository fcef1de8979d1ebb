package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// RuleType is the closed set of comparisons a rule can express.
type RuleType string

const (
	// RuleBudgetExceeded matches when the proposed budget is above the threshold.
	RuleBudgetExceeded RuleType = "budget_exceeded"
	// RuleROASBelowThreshold matches when observed ROAS is below the threshold.
	RuleROASBelowThreshold RuleType = "roas_below_threshold"
	// RuleBudgetChangePctExceeded matches when the relative budget change, in
	// percent of the current budget, is above the threshold.
	RuleBudgetChangePctExceeded RuleType = "budget_change_pct_exceeded"
	// RuleSpendExceeded matches when observed spend is above the threshold.
	RuleSpendExceeded RuleType = "spend_exceeded"
	// RuleSignalHealthBelowThreshold matches when the EMQ / signal health
	// score is below the threshold.
	RuleSignalHealthBelowThreshold RuleType = "signal_health_below_threshold"
)

// RuleTypes lists every supported rule type in documentation order.
var RuleTypes = []RuleType{
	RuleBudgetExceeded,
	RuleROASBelowThreshold,
	RuleBudgetChangePctExceeded,
	RuleSpendExceeded,
	RuleSignalHealthBelowThreshold,
}

// ParseRuleType validates and parses a rule type.
func ParseRuleType(s string) (RuleType, error) {
	t := RuleType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported rule_type: "+s)
	}
	return t, nil
}

func (t RuleType) IsValid() bool {
	for _, known := range RuleTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t RuleType) String() string { return string(t) }

// EnforcementRule is a tenant-defined threshold rule.
type EnforcementRule struct {
	ID          id.RuleID       `json:"rule_id"`
	TenantID    id.TenantID     `json:"tenant_id"`
	Type        RuleType        `json:"rule_type"`
	Threshold   decimal.Decimal `json:"threshold_value"`
	Mode        Mode            `json:"enforcement_mode"`
	Enabled     bool            `json:"enabled"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

// Validate checks rule fields. ID may be empty; the engine assigns one.
func (r EnforcementRule) Validate() error {
	if r.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "tenant_id is required")
	}
	if !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported rule_type: "+string(r.Type))
	}
	if !r.Mode.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "enforcement_mode must be one of advisory, soft_block, hard_block")
	}
	if r.Threshold.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "threshold_value must be >= 0")
	}
	if len(r.Description) > 500 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 500 characters")
	}
	return nil
}

// OutcomeSource says whether an outcome came from a stored rule or from the
// tenant settings thresholds.
type OutcomeSource string

const (
	SourceRule     OutcomeSource = "rule"
	SourceSettings OutcomeSource = "settings"
)

// RuleOutcome records one matched rule or settings guardrail.
type RuleOutcome struct {
	RuleID      id.RuleID       `json:"rule_id,omitempty"`
	RuleType    RuleType        `json:"rule_type"`
	Mode        Mode            `json:"enforcement_mode"`
	Threshold   decimal.Decimal `json:"threshold_value"`
	Observed    decimal.Decimal `json:"observed_value"`
	Source      OutcomeSource   `json:"source"`
	Description string          `json:"description,omitempty"`
}

// OutcomeModes extracts the modes of the outcomes.
func OutcomeModes(outcomes []RuleOutcome) []Mode {
	modes := make([]Mode, 0, len(outcomes))
	for _, o := range outcomes {
		modes = append(modes, o.Mode)
	}
	return modes
}
