package models

import (
	"time"

	id "trustgate/pkg/domain"
)

// KillSwitchState is the per-tenant kill switch. Values are treated as
// immutable once published.
type KillSwitchState struct {
	TenantID  id.TenantID `json:"tenant_id"`
	Enabled   bool        `json:"enabled"`
	Reason    string      `json:"reason"`
	ToggledAt *time.Time  `json:"toggled_at"`
	ToggledBy string      `json:"toggled_by"`
}

// DisabledKillSwitch is the state of a tenant that never toggled its switch.
func DisabledKillSwitch(tenantID id.TenantID) KillSwitchState {
	return KillSwitchState{TenantID: tenantID}
}
