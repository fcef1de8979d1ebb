package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// PostgreSQL SQLSTATEs mapped to sentinels.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// PostgresStore persists rules in enforcement_rules. The seq column is a
// bigserial and preserves insertion order.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed rule store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, rule models.EnforcementRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enforcement_rules
			(tenant_id, rule_id, rule_type, threshold_value, enforcement_mode, enabled, description, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rule.TenantID.String(),
		rule.ID.String(),
		rule.Type.String(),
		rule.Threshold,
		rule.Mode.String(),
		rule.Enabled,
		rule.Description,
		rule.CreatedAt,
		rule.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrConflict)
			case checkViolation:
				return fmt.Errorf("rule %s %s: %w", rule.ID, pgErr.ConstraintName, sentinel.ErrInvalidInput)
			}
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, ruleID id.RuleID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM enforcement_rules WHERE tenant_id = $1 AND rule_id = $2`,
		tenantID.String(), ruleID.String(),
	)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, rule_id, rule_type, threshold_value, enforcement_mode, enabled, description, created_at, created_by
		FROM enforcement_rules
		WHERE tenant_id = $1
		ORDER BY seq ASC
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.EnforcementRule, 0)
	for rows.Next() {
		var (
			tenant, ruleID, ruleType, mode string
			threshold                      decimal.Decimal
			rule                           models.EnforcementRule
		)
		if err := rows.Scan(&tenant, &ruleID, &ruleType, &threshold, &mode,
			&rule.Enabled, &rule.Description, &rule.CreatedAt, &rule.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.TenantID = id.TenantID(tenant)
		rule.ID = id.RuleID(ruleID)
		rule.Type = models.RuleType(ruleType)
		rule.Threshold = threshold
		rule.Mode = models.Mode(mode)
		rule.CreatedAt = rule.CreatedAt.UTC()
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}
