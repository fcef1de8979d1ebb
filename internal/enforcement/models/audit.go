package models

import (
	"time"

	"github.com/google/uuid"

	id "trustgate/pkg/domain"
)

// AuditEvent classifies an audit entry.
type AuditEvent string

const (
	EventDecisionMade       AuditEvent = "decision_made"
	EventOverrideConfirmed  AuditEvent = "override_confirmed"
	EventConfirmationFailed AuditEvent = "confirmation_failed"
	EventKillSwitchToggled  AuditEvent = "kill_switch_toggled"
	EventSettingsUpdated    AuditEvent = "settings_updated"
	EventRuleAdded          AuditEvent = "rule_added"
	EventRuleDeleted        AuditEvent = "rule_deleted"
)

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID             uuid.UUID   `json:"id"`
	TenantID       id.TenantID `json:"tenant_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Event          AuditEvent  `json:"event"`
	ActionType     string      `json:"action_type,omitempty"`
	EntityID       string      `json:"entity_id,omitempty"`
	Decision       *Decision   `json:"decision,omitempty"`
	OverrideReason *string     `json:"override_reason"`
	Actor          string      `json:"actor"`
	RequestID      string      `json:"request_id,omitempty"`
	// Detail carries a short free-form note, e.g. the failure code of a
	// rejected confirmation or the id of a deleted rule.
	Detail string `json:"detail,omitempty"`
}

// Clone returns a copy that shares no mutable state with e, so stored
// entries cannot be changed through a caller's pointer.
func (e AuditEntry) Clone() AuditEntry {
	c := e
	c.Decision = e.Decision.Clone()
	c.OverrideReason = clonePtr(e.OverrideReason)
	return c
}

// AuditQuery selects a tenant's entries in [Start, End], newest first.
type AuditQuery struct {
	TenantID id.TenantID
	Start    time.Time
	End      time.Time
	Limit    int
}
