package killswitch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, tenantID id.TenantID) (*models.KillSwitchState, error) {
	var (
		state     models.KillSwitchState
		toggledAt sql.NullTime
		toggledBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT enabled, reason, toggled_at, toggled_by
		FROM enforcement_kill_switches
		WHERE tenant_id = $1
	`, tenantID.String()).Scan(&state.Enabled, &state.Reason, &toggledAt, &toggledBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find kill switch: %w", err)
	}
	state.TenantID = tenantID
	if toggledAt.Valid {
		t := toggledAt.Time.UTC()
		state.ToggledAt = &t
	}
	state.ToggledBy = toggledBy.String
	return &state, nil
}

func (s *PostgresStore) Put(ctx context.Context, state models.KillSwitchState) error {
	var toggledAt sql.NullTime
	if state.ToggledAt != nil {
		toggledAt = sql.NullTime{Time: *state.ToggledAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enforcement_kill_switches (tenant_id, enabled, reason, toggled_at, toggled_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			reason = EXCLUDED.reason,
			toggled_at = EXCLUDED.toggled_at,
			toggled_by = EXCLUDED.toggled_by
	`, state.TenantID.String(), state.Enabled, state.Reason, toggledAt, state.ToggledBy)
	if err != nil {
		return fmt.Errorf("upsert kill switch: %w", err)
	}
	return nil
}
