package tokens

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/database"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// PostgresStore persists confirmation tokens in enforcement_confirmation_tokens.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectToken = `
	SELECT token, tenant_id, action_snapshot, issued_at, expires_at, used, used_at, override_reason
	FROM enforcement_confirmation_tokens
	WHERE token = $1
`

func (s *PostgresStore) Create(ctx context.Context, token *models.ConfirmationToken) error {
	if token == nil {
		return fmt.Errorf("token is required: %w", sentinel.ErrInvalidInput)
	}
	snapshot, err := json.Marshal(token.ActionSnapshot)
	if err != nil {
		return fmt.Errorf("marshal action snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enforcement_confirmation_tokens (token, tenant_id, action_snapshot, issued_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, token.Token, token.TenantID.String(), snapshot, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("confirmation token: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert confirmation token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, token string) (*models.ConfirmationToken, error) {
	record, err := scanToken(s.db.QueryRowContext(ctx, selectToken, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find confirmation token: %w", err)
	}
	return record, nil
}

// Execute locks the row with SELECT ... FOR UPDATE so concurrent consumers
// of the same token serialize and only the first observes used = false.
func (s *PostgresStore) Execute(ctx context.Context, token string, validate ValidateFunc, mutate MutateFunc) (*models.ConfirmationToken, error) {
	var result *models.ConfirmationToken
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		record, err := scanToken(tx.QueryRowContext(ctx, selectToken+" FOR UPDATE", token))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("find confirmation token for execute: %w", err)
		}

		if err := validate(record); err != nil {
			return err
		}
		mutate(record)

		_, err = tx.ExecContext(ctx, `
			UPDATE enforcement_confirmation_tokens
			SET used = $2, used_at = $3, override_reason = $4
			WHERE token = $1
		`, record.Token, record.Used, nullTime(record.UsedAt), nullString(record.OverrideReason))
		if err != nil {
			return fmt.Errorf("update confirmation token: %w", err)
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM enforcement_confirmation_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired confirmation tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired confirmation tokens rows: %w", err)
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*models.ConfirmationToken, error) {
	var (
		record   models.ConfirmationToken
		tenantID string
		snapshot []byte
		usedAt   sql.NullTime
		reason   sql.NullString
	)
	if err := row.Scan(&record.Token, &tenantID, &snapshot, &record.IssuedAt, &record.ExpiresAt, &record.Used, &usedAt, &reason); err != nil {
		return nil, err
	}
	if err := decodeJSON(snapshot, &record.ActionSnapshot); err != nil {
		return nil, fmt.Errorf("decode action snapshot: %w", err)
	}
	record.TenantID = id.TenantID(tenantID)
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		record.UsedAt = &t
	}
	record.OverrideReason = reason.String
	record.IssuedAt = record.IssuedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	return &record, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
