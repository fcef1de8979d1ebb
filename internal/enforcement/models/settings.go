package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// EnforcementSettings is the per-tenant enforcement configuration.
type EnforcementSettings struct {
	TenantID          id.TenantID      `json:"tenant_id"`
	MaxCampaignBudget *decimal.Decimal `json:"max_campaign_budget"`
	MinROASThreshold  decimal.Decimal  `json:"min_roas_threshold"`
	DefaultMode       Mode             `json:"default_mode"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`
	UpdatedBy         string           `json:"updated_by,omitempty"`
}

// DefaultSettings are returned for tenants that never stored settings:
// advisory mode, no budget cap and a zero ROAS floor.
func DefaultSettings(tenantID id.TenantID) EnforcementSettings {
	return EnforcementSettings{
		TenantID:         tenantID,
		MinROASThreshold: decimal.Zero,
		DefaultMode:      ModeAdvisory,
	}
}

// SettingsPatch carries a partial update. Nil fields are left untouched.
// ClearMaxCampaignBudget removes the cap; it cannot be combined with a new cap.
type SettingsPatch struct {
	MaxCampaignBudget      *decimal.Decimal
	ClearMaxCampaignBudget bool
	MinROASThreshold       *decimal.Decimal
	DefaultMode            *Mode
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.MaxCampaignBudget == nil && !p.ClearMaxCampaignBudget &&
		p.MinROASThreshold == nil && p.DefaultMode == nil
}

// Validate checks the supplied fields in isolation.
func (p SettingsPatch) Validate() error {
	if p.MaxCampaignBudget != nil && p.ClearMaxCampaignBudget {
		return dErrors.New(dErrors.CodeValidation, "max_campaign_budget cannot be set and cleared together")
	}
	if p.MaxCampaignBudget != nil && !p.MaxCampaignBudget.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "max_campaign_budget must be greater than 0")
	}
	if p.MinROASThreshold != nil && p.MinROASThreshold.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "min_roas_threshold must be >= 0")
	}
	if p.DefaultMode != nil && !p.DefaultMode.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "default_mode must be one of advisory, soft_block, hard_block")
	}
	return nil
}

// Apply returns a copy of s with the patch merged in. s is not modified.
func (s EnforcementSettings) Apply(p SettingsPatch) EnforcementSettings {
	merged := s
	switch {
	case p.ClearMaxCampaignBudget:
		merged.MaxCampaignBudget = nil
	case p.MaxCampaignBudget != nil:
		v := *p.MaxCampaignBudget
		merged.MaxCampaignBudget = &v
	}
	if p.MinROASThreshold != nil {
		merged.MinROASThreshold = *p.MinROASThreshold
	}
	if p.DefaultMode != nil {
		merged.DefaultMode = *p.DefaultMode
	}
	return merged
}

// Validate enforces the settings invariants on a complete record.
func (s EnforcementSettings) Validate() error {
	if s.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "tenant_id is required")
	}
	if s.MinROASThreshold.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "min_roas_threshold must be >= 0")
	}
	if s.MaxCampaignBudget != nil && !s.MaxCampaignBudget.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "max_campaign_budget must be greater than 0")
	}
	if !s.DefaultMode.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "default_mode must be one of advisory, soft_block, hard_block")
	}
	return nil
}
