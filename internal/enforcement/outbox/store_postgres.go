package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxBatch = 1000

// PostgresStore implements Store over enforcement_audit_outbox.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AppendTx inserts entry inside the caller's transaction.
func (s *PostgresStore) AppendTx(ctx context.Context, tx *sql.Tx, entry *Entry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO enforcement_audit_outbox (id, tenant_id, event, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.TenantID, entry.Event, entry.RequestID, entry.Payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry in tx: %w", err)
	}
	return nil
}

// FetchUnprocessed does not lock rows. Several relays may publish the same
// entry; consumers deduplicate on the audit id.
func (s *PostgresStore) FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	limit = min(limit, maxBatch)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, event, request_id, payload, created_at, processed_at
		FROM enforcement_audit_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC, seq ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unprocessed entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		var (
			e           Entry
			processedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Event, &e.RequestID, &e.Payload, &e.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if processedAt.Valid {
			t := processedAt.Time
			e.ProcessedAt = &t
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE enforcement_audit_outbox SET processed_at = $2
		WHERE id = $1 AND processed_at IS NULL
	`, id, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	return nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enforcement_audit_outbox WHERE processed_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM enforcement_audit_outbox
		WHERE processed_at IS NOT NULL AND processed_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}
