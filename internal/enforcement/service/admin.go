package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
)

func (s *Service) GetSettings(ctx context.Context, tenantID id.TenantID) (*models.EnforcementSettings, error) {
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID id.TenantID, patch models.SettingsPatch, actor string) (*models.EnforcementSettings, error) {
	settings, err := s.settings.Update(ctx, tenantID, patch, actor)
	if err != nil {
		return nil, err
	}
	s.record(ctx, nil, models.AuditEntry{
		TenantID: tenantID,
		Event:    models.EventSettingsUpdated,
		Actor:    actor,
		Detail:   describePatch(patch),
	})
	return &settings, nil
}

func (s *Service) AddRule(ctx context.Context, tenantID id.TenantID, rule models.EnforcementRule, actor string) (*models.EnforcementRule, error) {
	rule.CreatedBy = actor
	created, err := s.rules.AddRule(ctx, tenantID, rule)
	if err != nil {
		return nil, err
	}
	s.record(ctx, nil, models.AuditEntry{
		TenantID: tenantID,
		Event:    models.EventRuleAdded,
		Actor:    actor,
		Detail:   fmt.Sprintf("rule_id=%s rule_type=%s mode=%s threshold=%s", created.ID, created.Type, created.Mode, created.Threshold.String()),
	})
	return &created, nil
}

// DeleteRule is idempotent; only an actual removal is audited.
func (s *Service) DeleteRule(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID, actor string) (bool, error) {
	deleted, err := s.rules.DeleteRule(ctx, tenantID, ruleID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.record(ctx, nil, models.AuditEntry{
			TenantID: tenantID,
			Event:    models.EventRuleDeleted,
			Actor:    actor,
			Detail:   "rule_id=" + ruleID.String(),
		})
	}
	return deleted, nil
}

func (s *Service) ListRules(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error) {
	return s.rules.ListRules(ctx, tenantID)
}

func (s *Service) SetKillSwitch(ctx context.Context, tenantID id.TenantID, enabled bool, reason, actor string) (*models.KillSwitchState, error) {
	state, err := s.killSwitch.Set(ctx, tenantID, enabled, reason, actor)
	if err != nil {
		return nil, err
	}
	s.record(ctx, nil, models.AuditEntry{
		TenantID: tenantID,
		Event:    models.EventKillSwitchToggled,
		Actor:    actor,
		Detail:   fmt.Sprintf("enabled=%t reason=%q", state.Enabled, state.Reason),
	})
	if s.metrics != nil {
		s.metrics.IncrementKillSwitchToggle(state.Enabled)
	}
	return state, nil
}

func (s *Service) GetKillSwitch(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error) {
	return s.killSwitch.Get(ctx, tenantID)
}

func (s *Service) QueryAudit(ctx context.Context, tenantID id.TenantID, start, end time.Time, limit int) ([]models.AuditEntry, error) {
	return s.audit.Query(ctx, tenantID, start, end, limit)
}

func describePatch(p models.SettingsPatch) string {
	var parts []string
	switch {
	case p.ClearMaxCampaignBudget:
		parts = append(parts, "max_campaign_budget=null")
	case p.MaxCampaignBudget != nil:
		parts = append(parts, "max_campaign_budget="+p.MaxCampaignBudget.String())
	}
	if p.MinROASThreshold != nil {
		parts = append(parts, "min_roas_threshold="+p.MinROASThreshold.String())
	}
	if p.DefaultMode != nil {
		parts = append(parts, "default_mode="+p.DefaultMode.String())
	}
	return strings.Join(parts, " ")
}
