package models

import (
	"time"

	id "trustgate/pkg/domain"
)

// ConfirmationToken is a single-use credential issued on soft block.
type ConfirmationToken struct {
	Token          string         `json:"token"`
	TenantID       id.TenantID    `json:"tenant_id"`
	ActionSnapshot ProposedAction `json:"action_snapshot"`
	IssuedAt       time.Time      `json:"issued_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	Used           bool           `json:"used"`
	UsedAt         *time.Time     `json:"used_at,omitempty"`
	OverrideReason string         `json:"override_reason,omitempty"`
}

// IsExpired reports whether the token is past its expiry at now. A token is
// valid up to but excluding ExpiresAt.
func (t ConfirmationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ConsumeResult is returned by a successful consume.
type ConsumeResult struct {
	Token          ConfirmationToken
	ActionSnapshot ProposedAction
}
