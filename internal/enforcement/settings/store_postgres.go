package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/database"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// checkViolation is the PostgreSQL SQLSTATE for check_violation.
const checkViolation = "23514"

// PostgresStore persists settings in enforcement_settings.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed settings store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectSettings = `
	SELECT tenant_id, max_campaign_budget, min_roas_threshold, default_mode, updated_at, updated_by
	FROM enforcement_settings
	WHERE tenant_id = $1
`

func (s *PostgresStore) Find(ctx context.Context, tenantID id.TenantID) (*models.EnforcementSettings, error) {
	record, err := scanSettings(s.db.QueryRowContext(ctx, selectSettings, tenantID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("settings for tenant %s: %w", tenantID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return record, nil
}

// Execute locks the tenant's row for the duration of mutate. A row with
// default values is seeded first so FOR UPDATE always has something to lock.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, mutate MutateFunc) (*models.EnforcementSettings, error) {
	var result *models.EnforcementSettings
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		seeded, err := tx.ExecContext(ctx, `
			INSERT INTO enforcement_settings (tenant_id, max_campaign_budget, min_roas_threshold, default_mode)
			VALUES ($1, NULL, 0, $2)
			ON CONFLICT (tenant_id) DO NOTHING
		`, tenantID.String(), models.ModeAdvisory.String())
		if err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		inserted, _ := seeded.RowsAffected() //nolint:errcheck // pgx always reports rows affected

		current, err := scanSettings(tx.QueryRowContext(ctx, selectSettings+" FOR UPDATE", tenantID.String()))
		if err != nil {
			return fmt.Errorf("lock settings: %w", err)
		}

		next, err := mutate(*current, inserted == 0)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE enforcement_settings
			SET max_campaign_budget = $2,
				min_roas_threshold = $3,
				default_mode = $4,
				updated_at = $5,
				updated_by = $6
			WHERE tenant_id = $1
		`,
			tenantID.String(),
			nullDecimal(next.MaxCampaignBudget),
			next.MinROASThreshold,
			next.DefaultMode.String(),
			next.UpdatedAt,
			next.UpdatedBy,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
				return fmt.Errorf("update settings %s: %w", pgErr.ConstraintName, sentinel.ErrInvalidInput)
			}
			return fmt.Errorf("update settings: %w", err)
		}
		next.TenantID = tenantID
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*models.EnforcementSettings, error) {
	var (
		tenant    string
		budget    decimal.NullDecimal
		roas      decimal.Decimal
		mode      string
		updatedAt sql.NullTime
		updatedBy sql.NullString
	)
	if err := row.Scan(&tenant, &budget, &roas, &mode, &updatedAt, &updatedBy); err != nil {
		return nil, err
	}
	record := &models.EnforcementSettings{
		TenantID:         id.TenantID(tenant),
		MinROASThreshold: roas,
		DefaultMode:      models.Mode(mode),
		UpdatedBy:        updatedBy.String,
	}
	if budget.Valid {
		v := budget.Decimal
		record.MaxCampaignBudget = &v
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		record.UpdatedAt = &t
	}
	return record, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
