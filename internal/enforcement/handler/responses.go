package handler

import (
	"time"

	"trustgate/internal/enforcement/models"
)

// DecisionResponse is returned by check and confirm.
type DecisionResponse struct {
	Allowed           bool                   `json:"allowed"`
	ModeApplied       string                 `json:"mode_applied"`
	Reason            string                 `json:"reason"`
	ReasonCode        string                 `json:"reason_code"`
	ConfirmationToken *string                `json:"confirmation_token"`
	TokenExpiresAt    *time.Time             `json:"token_expires_at,omitempty"`
	MatchedRules      []RuleOutcomeResponse  `json:"matched_rules"`
	Action            *models.ProposedAction `json:"action,omitempty"`
	EvaluatedAt       time.Time              `json:"evaluated_at"`
}

type RuleOutcomeResponse struct {
	RuleID          string `json:"rule_id,omitempty"`
	RuleType        string `json:"rule_type"`
	EnforcementMode string `json:"enforcement_mode"`
	ThresholdValue  string `json:"threshold_value"`
	ObservedValue   string `json:"observed_value"`
	Source          string `json:"source"`
	Description     string `json:"description,omitempty"`
}

type SettingsResponse struct {
	TenantID          string     `json:"tenant_id"`
	MaxCampaignBudget *string    `json:"max_campaign_budget"`
	MinROASThreshold  string     `json:"min_roas_threshold"`
	DefaultMode       string     `json:"default_mode"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	UpdatedBy         string     `json:"updated_by,omitempty"`
}

type RuleResponse struct {
	RuleID          string    `json:"rule_id"`
	RuleType        string    `json:"rule_type"`
	ThresholdValue  string    `json:"threshold_value"`
	EnforcementMode string    `json:"enforcement_mode"`
	Enabled         bool      `json:"enabled"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by,omitempty"`
}

type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

type DeleteRuleResponse struct {
	RuleID  string `json:"rule_id"`
	Deleted bool   `json:"deleted"`
}

type KillSwitchResponse struct {
	TenantID  string     `json:"tenant_id"`
	Enabled   bool       `json:"enabled"`
	Reason    string     `json:"reason"`
	ToggledAt *time.Time `json:"toggled_at"`
	ToggledBy string     `json:"toggled_by"`
}

type AuditEntryResponse struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Event          string            `json:"event"`
	ActionType     string            `json:"action_type,omitempty"`
	EntityID       string            `json:"entity_id,omitempty"`
	Decision       *DecisionResponse `json:"decision,omitempty"`
	OverrideReason *string           `json:"override_reason"`
	Actor          string            `json:"actor"`
	RequestID      string            `json:"request_id,omitempty"`
	Detail         string            `json:"detail,omitempty"`
}

type AuditLogResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Count   int                  `json:"count"`
}

func toDecisionResponse(d *models.Decision) *DecisionResponse {
	outcomes := make([]RuleOutcomeResponse, 0, len(d.MatchedRules))
	for _, o := range d.MatchedRules {
		outcomes = append(outcomes, RuleOutcomeResponse{
			RuleID:          o.RuleID.String(),
			RuleType:        o.RuleType.String(),
			EnforcementMode: o.Mode.String(),
			ThresholdValue:  o.Threshold.String(),
			ObservedValue:   o.Observed.String(),
			Source:          string(o.Source),
			Description:     o.Description,
		})
	}
	return &DecisionResponse{
		Allowed:           d.Allowed,
		ModeApplied:       d.ModeApplied.String(),
		Reason:            d.Reason.Message,
		ReasonCode:        string(d.Reason.Code),
		ConfirmationToken: d.ConfirmationToken,
		TokenExpiresAt:    d.TokenExpiresAt,
		MatchedRules:      outcomes,
		Action:            d.Action,
		EvaluatedAt:       d.EvaluatedAt,
	}
}

func toSettingsResponse(s *models.EnforcementSettings) *SettingsResponse {
	resp := &SettingsResponse{
		TenantID:         s.TenantID.String(),
		MinROASThreshold: s.MinROASThreshold.String(),
		DefaultMode:      s.DefaultMode.String(),
		UpdatedAt:        s.UpdatedAt,
		UpdatedBy:        s.UpdatedBy,
	}
	if s.MaxCampaignBudget != nil {
		budget := s.MaxCampaignBudget.String()
		resp.MaxCampaignBudget = &budget
	}
	return resp
}

func toRuleResponse(r *models.EnforcementRule) RuleResponse {
	return RuleResponse{
		RuleID:          r.ID.String(),
		RuleType:        r.Type.String(),
		ThresholdValue:  r.Threshold.String(),
		EnforcementMode: r.Mode.String(),
		Enabled:         r.Enabled,
		Description:     r.Description,
		CreatedAt:       r.CreatedAt,
		CreatedBy:       r.CreatedBy,
	}
}

func toRuleListResponse(rules []models.EnforcementRule) *RuleListResponse {
	out := make([]RuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, toRuleResponse(&rules[i]))
	}
	return &RuleListResponse{Rules: out}
}

func toKillSwitchResponse(s *models.KillSwitchState) *KillSwitchResponse {
	return &KillSwitchResponse{
		TenantID:  s.TenantID.String(),
		Enabled:   s.Enabled,
		Reason:    s.Reason,
		ToggledAt: s.ToggledAt,
		ToggledBy: s.ToggledBy,
	}
}

func toAuditLogResponse(entries []models.AuditEntry) *AuditLogResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := AuditEntryResponse{
			ID:             e.ID.String(),
			Timestamp:      e.Timestamp,
			Event:          string(e.Event),
			ActionType:     e.ActionType,
			EntityID:       e.EntityID,
			OverrideReason: e.OverrideReason,
			Actor:          e.Actor,
			RequestID:      e.RequestID,
			Detail:         e.Detail,
		}
		if e.Decision != nil {
			item.Decision = toDecisionResponse(e.Decision)
		}
		out = append(out, item)
	}
	return &AuditLogResponse{Entries: out, Count: len(out)}
}
