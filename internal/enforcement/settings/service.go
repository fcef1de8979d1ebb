// Package settings owns per-tenant enforcement settings: defaults for unset
// tenants and validated, atomic partial updates.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/sentinel"
)

// MutateFunc computes the next settings from the current ones. found is
// false when the tenant has no stored settings and current holds defaults.
type MutateFunc func(current models.EnforcementSettings, found bool) (models.EnforcementSettings, error)

// Store persists settings. Execute must run mutate and persist its result as
// one atomic step per tenant; an error from mutate aborts without writing.
type Store interface {
	Find(ctx context.Context, tenantID id.TenantID) (*models.EnforcementSettings, error)
	Execute(ctx context.Context, tenantID id.TenantID, mutate MutateFunc) (*models.EnforcementSettings, error)
}

// Service is the settings store used by the enforcer and the HTTP layer.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the tenant's settings, or defaults when none are stored.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (models.EnforcementSettings, error) {
	if tenantID.IsNil() {
		return models.EnforcementSettings{}, models.ErrTenantRequired
	}
	stored, err := s.store.Find(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.DefaultSettings(tenantID), nil
		}
		return models.EnforcementSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enforcement settings")
	}
	return *stored, nil
}

// Update merges patch into the tenant's settings. Both the patch and the
// merged result are validated; nothing is written on failure.
func (s *Service) Update(ctx context.Context, tenantID id.TenantID, patch models.SettingsPatch, actor string) (models.EnforcementSettings, error) {
	if tenantID.IsNil() {
		return models.EnforcementSettings{}, models.ErrTenantRequired
	}
	if err := patch.Validate(); err != nil {
		return models.EnforcementSettings{}, err
	}

	updated, err := s.store.Execute(ctx, tenantID, func(current models.EnforcementSettings, _ bool) (models.EnforcementSettings, error) {
		next := current.Apply(patch)
		if err := next.Validate(); err != nil {
			return models.EnforcementSettings{}, err
		}
		now := s.now().UTC()
		next.UpdatedAt = &now
		next.UpdatedBy = actor
		return next, nil
	})
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return models.EnforcementSettings{}, err
		}
		if errors.Is(err, sentinel.ErrInvalidInput) {
			return models.EnforcementSettings{}, dErrors.Wrap(err, dErrors.CodeValidation, "settings rejected by store constraints")
		}
		return models.EnforcementSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update enforcement settings")
	}

	s.logger.InfoContext(ctx, "enforcement settings updated",
		"tenant_id", tenantID.String(),
		"default_mode", updated.DefaultMode.String(),
		"actor", actor,
	)
	return *updated, nil
}
