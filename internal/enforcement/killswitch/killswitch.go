// Package killswitch holds the per-tenant override that hard-blocks every
// autopilot action while enabled.
package killswitch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/sentinel"
)

const maxReasonLength = 500

// Store persists kill switch states. Get returns sentinel.ErrNotFound for a
// tenant that never toggled its switch.
type Store interface {
	Get(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error)
	Put(ctx context.Context, state models.KillSwitchState) error
}

type Switch struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Switch)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Switch) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Switch) {
		s.now = now
	}
}

func New(store Store, opts ...Option) *Switch {
	s := &Switch{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set publishes a new state. Setting the current value again is allowed and
// refreshes reason, toggled_at and toggled_by.
func (s *Switch) Set(ctx context.Context, tenantID id.TenantID, enabled bool, reason, actor string) (*models.KillSwitchState, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}

	now := s.now().UTC()
	state := models.KillSwitchState{
		TenantID:  tenantID,
		Enabled:   enabled,
		Reason:    reason,
		ToggledAt: &now,
		ToggledBy: actor,
	}
	if err := s.store.Put(ctx, state); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store kill switch")
	}

	s.logger.WarnContext(ctx, "kill switch toggled",
		"tenant_id", tenantID.String(),
		"enabled", enabled,
		"reason", reason,
		"actor", actor,
	)
	return &state, nil
}

// Get returns the tenant's state, or a disabled zero state when never set.
func (s *Switch) Get(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	state, err := s.store.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			disabled := models.DisabledKillSwitch(tenantID)
			return &disabled, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read kill switch")
	}
	return state, nil
}

func (s *Switch) IsEnabled(ctx context.Context, tenantID id.TenantID) (bool, error) {
	state, err := s.Get(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return state.Enabled, nil
}
