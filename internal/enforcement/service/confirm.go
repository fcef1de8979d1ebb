package service

import (
	"context"
	"strings"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/tracer"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// Confirm redeems a confirmation token with an override reason.
//
// While the kill switch is on the token is left untouched and a hard block
// is returned. Token failures are audited as confirmation_failed and the
// vault error is returned unchanged.
func (s *Service) Confirm(ctx context.Context, tenantID id.TenantID, token, overrideReason string) (decision *models.Decision, err error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	reason := strings.TrimSpace(overrideReason)
	if reason == "" {
		return nil, models.ErrOverrideRequired
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanConfirm,
		tracer.String(tracer.AttrTenantID, tenantID.String()),
		tracer.String(tracer.AttrTokenHash, tracer.HashToken(token)),
	)
	defer func() { span.End(err) }()

	now := s.clock(ctx).UTC()
	ks, err := s.killSwitch.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if ks.Enabled {
		d := models.KillSwitchDecision(*ks, now)
		span.SetAttributes(tracer.Bool(tracer.AttrKillSwitch, true))
		s.record(ctx, span, models.AuditEntry{
			TenantID:       tenantID,
			Event:          models.EventConfirmationFailed,
			Decision:       &d,
			OverrideReason: &reason,
			Detail:         string(models.ReasonKillSwitchActive),
		})
		s.countConfirmation("kill_switch")
		return &d, nil
	}

	res, err := s.tokens.Consume(ctx, tenantID, token, reason)
	if err != nil {
		code := dErrors.CodeOf(err)
		s.record(ctx, span, models.AuditEntry{
			TenantID:       tenantID,
			Event:          models.EventConfirmationFailed,
			OverrideReason: &reason,
			Detail:         string(code),
		})
		s.countConfirmation(string(code))
		s.logger.InfoContext(ctx, "confirmation rejected",
			"tenant_id", tenantID.String(),
			"code", string(code),
		)
		return nil, err
	}
	span.AddEvent(tracer.EventTokenConsumed)

	snapshot := res.ActionSnapshot
	d := models.Decision{
		Allowed:      true,
		ModeApplied:  models.ModeSoftBlock,
		Reason:       models.Reason{Code: models.ReasonOverrideConfirmed, Message: "override confirmed: " + reason},
		MatchedRules: []models.RuleOutcome{},
		Action:       &snapshot,
		EvaluatedAt:  now,
	}
	span.SetAttributes(
		tracer.String(tracer.AttrMode, d.ModeApplied.String()),
		tracer.Bool(tracer.AttrAllowed, true),
		tracer.String(tracer.AttrReason, string(d.Reason.Code)),
	)

	s.record(ctx, span, models.AuditEntry{
		TenantID:       tenantID,
		Event:          models.EventOverrideConfirmed,
		ActionType:     snapshot.ActionType,
		EntityID:       snapshot.EntityID,
		Decision:       &d,
		OverrideReason: &reason,
	})
	s.countConfirmation("confirmed")
	s.logger.InfoContext(ctx, "override confirmed",
		"tenant_id", tenantID.String(),
		"action_type", snapshot.ActionType,
		"entity_id", snapshot.EntityID,
	)
	return &d, nil
}

func (s *Service) countConfirmation(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementConfirmation(outcome)
	}
}
