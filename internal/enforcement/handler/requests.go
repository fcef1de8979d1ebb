package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	tgstrings "trustgate/pkg/platform/strings"
	"trustgate/pkg/platform/validation"
)

// CheckRequest is the body of POST check.
type CheckRequest struct {
	ActionType    string         `json:"action_type"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	ProposedValue map[string]any `json:"proposed_value"`
	CurrentValue  map[string]any `json:"current_value"`
	Metrics       map[string]any `json:"metrics"`
}

func (r *CheckRequest) Normalize() {
	if r == nil {
		return
	}
	r.ActionType = strings.TrimSpace(r.ActionType)
	r.EntityType = strings.TrimSpace(r.EntityType)
	r.EntityID = strings.TrimSpace(r.EntityID)
	r.ProposedValue = tgstrings.TrimMapKeys(r.ProposedValue)
	r.CurrentValue = tgstrings.TrimMapKeys(r.CurrentValue)
	r.Metrics = tgstrings.TrimMapKeys(r.Metrics)
}

func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	// Phase 1: Size validation (fail fast on oversized input)
	if err := validation.CheckStringLength("action_type", r.ActionType, validation.MaxActionTypeLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("entity_type", r.EntityType, validation.MaxActionTypeLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("entity_id", r.EntityID, validation.MaxEntityIDLength); err != nil {
		return err
	}
	for name, m := range map[string]map[string]any{
		"proposed_value": r.ProposedValue,
		"current_value":  r.CurrentValue,
		"metrics":        r.Metrics,
	} {
		if err := validation.CheckMapSize(name, m, validation.MaxPayloadKeys); err != nil {
			return err
		}
	}

	// Phase 2: Required fields
	if err := validation.CheckRequired("action_type", r.ActionType); err != nil {
		return err
	}
	return validation.CheckRequired("entity_id", r.EntityID)
}

// ToAction converts the request to the domain type.
func (r *CheckRequest) ToAction() models.ProposedAction {
	return models.ProposedAction{
		ActionType:    r.ActionType,
		EntityType:    r.EntityType,
		EntityID:      r.EntityID,
		ProposedValue: r.ProposedValue,
		CurrentValue:  r.CurrentValue,
		Metrics:       r.Metrics,
	}
}

// ConfirmRequest is the body of POST confirm.
type ConfirmRequest struct {
	ConfirmationToken string `json:"confirmation_token"`
	OverrideReason    string `json:"override_reason"`
}

func (r *ConfirmRequest) Normalize() {
	if r == nil {
		return
	}
	r.ConfirmationToken = strings.TrimSpace(r.ConfirmationToken)
	r.OverrideReason = strings.TrimSpace(r.OverrideReason)
}

func (r *ConfirmRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("confirmation_token", r.ConfirmationToken, validation.MaxConfirmationTokenLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("override_reason", r.OverrideReason, validation.MaxReasonLength); err != nil {
		return err
	}
	if err := validation.CheckRequired("confirmation_token", r.ConfirmationToken); err != nil {
		return err
	}
	if r.OverrideReason == "" {
		return models.ErrOverrideRequired
	}
	return nil
}

// NullableDecimal distinguishes an omitted field from an explicit null.
type NullableDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	n.Value = &d
	return nil
}

// UpdateSettingsRequest is the body of PUT settings. Every field is optional.
type UpdateSettingsRequest struct {
	MaxCampaignBudget NullableDecimal  `json:"max_campaign_budget"`
	MinROASThreshold  *decimal.Decimal `json:"min_roas_threshold"`
	DefaultMode       *string          `json:"default_mode"`

	mode *models.Mode
}

func (r *UpdateSettingsRequest) Normalize() {
	if r == nil {
		return
	}
	r.DefaultMode = tgstrings.TrimSpacePtr(r.DefaultMode)
}

func (r *UpdateSettingsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.DefaultMode != nil {
		mode, err := models.ParseMode(*r.DefaultMode)
		if err != nil {
			return err
		}
		r.mode = &mode
	}
	return r.ToPatch().Validate()
}

// ToPatch converts the request to a settings patch. Call after Validate.
func (r *UpdateSettingsRequest) ToPatch() models.SettingsPatch {
	patch := models.SettingsPatch{
		MinROASThreshold: r.MinROASThreshold,
		DefaultMode:      r.mode,
	}
	if r.MaxCampaignBudget.Set {
		if r.MaxCampaignBudget.Value == nil {
			patch.ClearMaxCampaignBudget = true
		} else {
			patch.MaxCampaignBudget = r.MaxCampaignBudget.Value
		}
	}
	return patch
}

// AddRuleRequest is the body of POST rules. rule_id is optional; enabled
// defaults to true.
type AddRuleRequest struct {
	RuleID          string           `json:"rule_id"`
	RuleType        string           `json:"rule_type"`
	ThresholdValue  *decimal.Decimal `json:"threshold_value"`
	EnforcementMode string           `json:"enforcement_mode"`
	Enabled         *bool            `json:"enabled"`
	Description     string           `json:"description"`

	ruleType models.RuleType
	mode     models.Mode
	ruleID   id.RuleID
}

func (r *AddRuleRequest) Normalize() {
	if r == nil {
		return
	}
	r.RuleID = strings.TrimSpace(r.RuleID)
	r.RuleType = tgstrings.TrimLower(r.RuleType)
	r.EnforcementMode = tgstrings.TrimLower(r.EnforcementMode)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *AddRuleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("description", r.Description, validation.MaxReasonLength); err != nil {
		return err
	}
	if r.RuleID != "" {
		ruleID, err := id.ParseRuleID(r.RuleID)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid rule_id")
		}
		r.ruleID = ruleID
	}

	if err := validation.CheckRequired("rule_type", r.RuleType); err != nil {
		return err
	}
	ruleType, err := models.ParseRuleType(r.RuleType)
	if err != nil {
		return err
	}
	r.ruleType = ruleType

	if r.ThresholdValue == nil {
		return dErrors.New(dErrors.CodeValidation, "threshold_value is required")
	}
	if r.ThresholdValue.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "threshold_value must be >= 0")
	}

	if err := validation.CheckRequired("enforcement_mode", r.EnforcementMode); err != nil {
		return err
	}
	mode, err := models.ParseMode(r.EnforcementMode)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "enforcement_mode must be one of advisory, soft_block, hard_block")
	}
	r.mode = mode
	return nil
}

// ToRule converts the request to the domain type. Call after Validate.
func (r *AddRuleRequest) ToRule(tenantID id.TenantID) models.EnforcementRule {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return models.EnforcementRule{
		ID:          r.ruleID,
		TenantID:    tenantID,
		Type:        r.ruleType,
		Threshold:   *r.ThresholdValue,
		Mode:        r.mode,
		Enabled:     enabled,
		Description: r.Description,
	}
}

// KillSwitchRequest is the body of POST kill-switch.
type KillSwitchRequest struct {
	Enabled *bool  `json:"enabled"`
	Reason  string `json:"reason"`
}

func (r *KillSwitchRequest) Normalize() {
	if r == nil {
		return
	}
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *KillSwitchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return validation.CheckStringLength("reason", r.Reason, validation.MaxReasonLength)
}
