// Package tokens issues and redeems single-use confirmation tokens for
// soft-blocked actions.
package tokens

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/middleware/requesttime"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/secrets"
)

const (
	// TokenPrefix marks confirmation tokens in logs and secret scanners.
	TokenPrefix = "cft_"

	DefaultTTL = 15 * time.Minute

	// DefaultRetention keeps expired tokens around long enough that a late
	// confirm reports token_expired instead of not_found.
	DefaultRetention = time.Hour
)

// ValidateFunc inspects a token under lock. A non-nil error aborts the
// mutation and is returned to the caller unchanged.
type ValidateFunc func(*models.ConfirmationToken) error

// MutateFunc modifies a token under lock after validation passed.
type MutateFunc func(*models.ConfirmationToken)

// Store persists confirmation tokens. Execute must run validate and mutate
// atomically with respect to other Execute calls on the same token.
type Store interface {
	Create(ctx context.Context, token *models.ConfirmationToken) error
	Find(ctx context.Context, token string) (*models.ConfirmationToken, error)
	Execute(ctx context.Context, token string, validate ValidateFunc, mutate MutateFunc) (*models.ConfirmationToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// Vault is the token lifecycle service.
type Vault struct {
	store     Store
	ttl       time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func(context.Context) time.Time
	generate  func() (string, error)
}

type Option func(*Vault)

func WithTTL(ttl time.Duration) Option {
	return func(v *Vault) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(v *Vault) {
		if d >= 0 {
			v.retention = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.now = func(context.Context) time.Time { return now() }
	}
}

// WithGenerator replaces the token generator. Tests use it to force
// predictable or colliding values.
func WithGenerator(gen func() (string, error)) Option {
	return func(v *Vault) {
		v.generate = gen
	}
}

func NewVault(store Store, opts ...Option) *Vault {
	v := &Vault{
		store:     store,
		ttl:       DefaultTTL,
		retention: DefaultRetention,
		logger:    slog.Default(),
		now:       requesttime.Now,
		generate:  func() (string, error) { return secrets.GenerateWithPrefix(TokenPrefix) },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// TTL returns the lifetime of newly issued tokens.
func (v *Vault) TTL() time.Duration { return v.ttl }

// Issue creates a token bound to tenantID that authorizes exactly the given
// action snapshot.
func (v *Vault) Issue(ctx context.Context, tenantID id.TenantID, snapshot models.ProposedAction) (*models.ConfirmationToken, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	value, err := v.generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate confirmation token")
	}
	now := v.now(ctx).UTC()
	token := &models.ConfirmationToken{
		Token:          value,
		TenantID:       tenantID,
		ActionSnapshot: snapshot.Clone(),
		IssuedAt:       now,
		ExpiresAt:      now.Add(v.ttl),
	}
	if err := v.store.Create(ctx, token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store confirmation token")
	}
	return token, nil
}

// Consume atomically validates a token and marks it used. Expiry is checked
// before the used flag; a token of another tenant is reported as not found.
//
// Errors: models.ErrTokenNotFound, models.ErrTokenExpired,
// models.ErrTokenAlreadyUsed, models.ErrOverrideRequired.
func (v *Vault) Consume(ctx context.Context, tenantID id.TenantID, token, overrideReason string) (*models.ConsumeResult, error) {
	if tenantID.IsNil() {
		return nil, models.ErrTenantRequired
	}
	reason := strings.TrimSpace(overrideReason)
	if reason == "" {
		return nil, models.ErrOverrideRequired
	}
	if token == "" {
		return nil, models.ErrTokenNotFound
	}

	now := v.now(ctx).UTC()
	consumed, err := v.store.Execute(ctx, token,
		func(t *models.ConfirmationToken) error {
			if !secrets.Equal(t.TenantID.String(), tenantID.String()) {
				return models.ErrTokenNotFound
			}
			if t.IsExpired(now) {
				return models.ErrTokenExpired
			}
			if t.Used {
				return models.ErrTokenAlreadyUsed
			}
			return nil
		},
		func(t *models.ConfirmationToken) {
			t.Used = true
			t.UsedAt = &now
			t.OverrideReason = reason
		},
	)
	if err != nil {
		return nil, translateStoreError(err)
	}

	return &models.ConsumeResult{
		Token:          *consumed,
		ActionSnapshot: consumed.ActionSnapshot.Clone(),
	}, nil
}

// DeleteExpired purges tokens that expired more than the retention window
// before now.
func (v *Vault) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	deleted, err := v.store.DeleteExpired(ctx, now.Add(-v.retention))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete expired confirmation tokens")
	}
	return deleted, nil
}

func translateStoreError(err error) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return models.ErrTokenNotFound
	case errors.Is(err, sentinel.ErrExpired):
		return models.ErrTokenExpired
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return models.ErrTokenAlreadyUsed
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume confirmation token")
	}
}
