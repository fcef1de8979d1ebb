package models

import (
	"slices"
	"time"
)

// ReasonCode is the machine-readable tag on a decision.
type ReasonCode string

const (
	ReasonKillSwitchActive  ReasonCode = "kill_switch_active"
	ReasonDefaultMode       ReasonCode = "default_mode"
	ReasonRuleMatched       ReasonCode = "rule_matched"
	ReasonOverrideConfirmed ReasonCode = "override_confirmed"
)

// Reason pairs a machine tag with a human-readable message.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

// Decision is the immutable result of a check or confirm.
type Decision struct {
	Allowed           bool            `json:"allowed"`
	ModeApplied       Mode            `json:"mode_applied"`
	Reason            Reason          `json:"reason"`
	ConfirmationToken *string         `json:"confirmation_token"`
	TokenExpiresAt    *time.Time      `json:"token_expires_at,omitempty"`
	MatchedRules      []RuleOutcome   `json:"matched_rules"`
	Action            *ProposedAction `json:"action,omitempty"`
	EvaluatedAt       time.Time       `json:"evaluated_at"`
}

// Clone returns a deep copy sharing no pointers or slices with d.
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	c := *d
	c.ConfirmationToken = clonePtr(d.ConfirmationToken)
	c.TokenExpiresAt = clonePtr(d.TokenExpiresAt)
	if d.MatchedRules != nil {
		c.MatchedRules = slices.Clone(d.MatchedRules)
	}
	if d.Action != nil {
		action := d.Action.Clone()
		c.Action = &action
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Blocked reports whether the action may not proceed as submitted.
func (d Decision) Blocked() bool { return !d.Allowed }

// KillSwitchDecision is the hard block returned while a tenant's kill switch is on.
func KillSwitchDecision(state KillSwitchState, now time.Time) Decision {
	msg := "kill_switch_active: all autopilot actions are blocked"
	if state.Reason != "" {
		msg += " (" + state.Reason + ")"
	}
	return Decision{
		Allowed:      false,
		ModeApplied:  ModeHardBlock,
		Reason:       Reason{Code: ReasonKillSwitchActive, Message: msg},
		MatchedRules: []RuleOutcome{},
		EvaluatedAt:  now,
	}
}
