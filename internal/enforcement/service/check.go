package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/tracer"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// Settings guardrails are reported as outcomes with these pseudo rule ids.
const (
	guardrailMaxBudget = id.RuleID("settings.max_campaign_budget")
	guardrailMinROAS   = id.RuleID("settings.min_roas_threshold")
)

// Check decides whether a proposed action may run.
//
// The kill switch is consulted first and short-circuits everything else.
// Otherwise settings and rule outcomes are gathered concurrently, the
// strictest matched mode wins (default_mode when nothing matched) and a
// confirmation token is issued on soft block. Every decision is audited
// before it is returned.
func (s *Service) Check(ctx context.Context, tenantID id.TenantID, action models.ProposedAction) (decision *models.Decision, err error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	now := s.clock(ctx).UTC()
	ctx, span := s.tracer.Start(ctx, tracer.SpanCheck,
		tracer.String(tracer.AttrTenantID, tenantID.String()),
		tracer.String(tracer.AttrActionType, action.ActionType),
		tracer.String(tracer.AttrEntityID, action.EntityID),
	)
	defer func() { span.End(err) }()

	ks, err := s.killSwitch.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Bool(tracer.AttrKillSwitch, ks.Enabled))

	var d models.Decision
	if ks.Enabled {
		d = models.KillSwitchDecision(*ks, now)
	} else {
		d, err = s.evaluate(ctx, span, tenantID, action, now)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		tracer.String(tracer.AttrMode, d.ModeApplied.String()),
		tracer.Bool(tracer.AttrAllowed, d.Allowed),
		tracer.String(tracer.AttrReason, string(d.Reason.Code)),
		tracer.Int64(tracer.AttrMatchedRules, int64(len(d.MatchedRules))),
	)

	s.record(ctx, span, models.AuditEntry{
		TenantID:   tenantID,
		Event:      models.EventDecisionMade,
		ActionType: action.ActionType,
		EntityID:   action.EntityID,
		Decision:   &d,
	})

	if s.metrics != nil {
		s.metrics.ObserveDecision(d.ModeApplied.String(), d.Allowed, start)
		for _, o := range d.MatchedRules {
			s.metrics.IncrementRuleMatch(o.RuleType.String(), string(o.Source))
		}
	}
	s.logger.InfoContext(ctx, "enforcement decision",
		"tenant_id", tenantID.String(),
		"action_type", action.ActionType,
		"entity_id", action.EntityID,
		"mode_applied", d.ModeApplied.String(),
		"allowed", d.Allowed,
		"reason", string(d.Reason.Code),
		"matched_rules", len(d.MatchedRules),
	)
	return &d, nil
}

// evaluate decides for a tenant whose kill switch is off.
func (s *Service) evaluate(ctx context.Context, span tracer.Span, tenantID id.TenantID, action models.ProposedAction, now time.Time) (models.Decision, error) {
	var (
		settings models.EnforcementSettings
		outcomes []models.RuleOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.settings.Get(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		evalCtx, evalSpan := s.tracer.Start(gctx, tracer.SpanEvaluate, tracer.String(tracer.AttrTenantID, tenantID.String()))
		var err error
		outcomes, err = s.rules.Evaluate(evalCtx, tenantID, action, action.Metrics)
		evalSpan.End(err)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Decision{}, err
	}

	outcomes = append(outcomes, guardrails(settings, action)...)

	d := models.Decision{
		MatchedRules: outcomes,
		EvaluatedAt:  now,
	}
	if mode, matched := models.Strictest(models.OutcomeModes(outcomes)...); matched {
		d.ModeApplied = mode
		d.Reason = models.Reason{Code: models.ReasonRuleMatched, Message: matchedMessage(outcomes, mode)}
	} else {
		d.ModeApplied = settings.DefaultMode
		d.Reason = models.Reason{
			Code:    models.ReasonDefaultMode,
			Message: fmt.Sprintf("no rules matched; tenant default mode %s applied", settings.DefaultMode),
		}
	}

	switch d.ModeApplied {
	case models.ModeAdvisory:
		d.Allowed = true
	case models.ModeHardBlock:
		d.Allowed = false
	case models.ModeSoftBlock:
		token, err := s.tokens.Issue(ctx, tenantID, action)
		if err != nil {
			return models.Decision{}, err
		}
		d.Allowed = false
		d.ConfirmationToken = &token.Token
		d.TokenExpiresAt = &token.ExpiresAt
		span.AddEvent(tracer.EventTokenIssued, tracer.String(tracer.AttrTokenHash, tracer.HashToken(token.Token)))
		if s.metrics != nil {
			s.metrics.IncrementTokensIssued()
		}
	default:
		return models.Decision{}, dErrors.New(dErrors.CodeInternal, "invalid enforcement mode "+d.ModeApplied.String())
	}
	return d, nil
}

// guardrails turns the tenant's settings thresholds into outcomes enforced
// at the tenant's default mode.
func guardrails(settings models.EnforcementSettings, action models.ProposedAction) []models.RuleOutcome {
	var out []models.RuleOutcome
	if settings.MaxCampaignBudget != nil {
		if budget, ok := action.ProposedBudget(); ok && budget.GreaterThan(*settings.MaxCampaignBudget) {
			out = append(out, models.RuleOutcome{
				RuleID:      guardrailMaxBudget,
				RuleType:    models.RuleBudgetExceeded,
				Mode:        settings.DefaultMode,
				Threshold:   *settings.MaxCampaignBudget,
				Observed:    budget,
				Source:      models.SourceSettings,
				Description: "proposed budget exceeds max_campaign_budget",
			})
		}
	}
	if settings.MinROASThreshold.IsPositive() {
		if roas, ok := action.Metric(models.MetricROAS); ok && roas.LessThan(settings.MinROASThreshold) {
			out = append(out, models.RuleOutcome{
				RuleID:      guardrailMinROAS,
				RuleType:    models.RuleROASBelowThreshold,
				Mode:        settings.DefaultMode,
				Threshold:   settings.MinROASThreshold,
				Observed:    roas,
				Source:      models.SourceSettings,
				Description: "observed ROAS is below min_roas_threshold",
			})
		}
	}
	return out
}

func matchedMessage(outcomes []models.RuleOutcome, mode models.Mode) string {
	for _, o := range outcomes {
		if o.Mode == mode {
			return fmt.Sprintf("%d rule(s) matched; strictest mode %s applied (%s %s: observed %s, threshold %s)",
				len(outcomes), mode, o.RuleID, o.RuleType, o.Observed.String(), o.Threshold.String())
		}
	}
	return fmt.Sprintf("%d rule(s) matched; strictest mode %s applied", len(outcomes), mode)
}
