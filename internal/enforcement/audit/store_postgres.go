package audit

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/enforcement/outbox"
	"trustgate/internal/platform/database"
	id "trustgate/pkg/domain"
)

// PostgresStore writes to enforcement_audit_log. The table is insert-only.
type PostgresStore struct {
	db     *sql.DB
	outbox *outbox.PostgresStore
}

type PostgresOption func(*PostgresStore)

// WithOutbox also writes every entry to the outbox in the same transaction,
// for the relay to publish.
func WithOutbox(ob *outbox.PostgresStore) PostgresOption {
	return func(s *PostgresStore) {
		s.outbox = ob
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) Append(ctx context.Context, entry models.AuditEntry) error {
	if s.outbox == nil {
		return insertEntry(ctx, s.db, entry)
	}
	pending, err := outbox.NewEntry(entry)
	if err != nil {
		return err
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := insertEntry(ctx, tx, entry); err != nil {
			return err
		}
		return s.outbox.AppendTx(ctx, tx, pending)
	})
}

func insertEntry(ctx context.Context, db execer, entry models.AuditEntry) error {
	var decision []byte
	if entry.Decision != nil {
		raw, err := json.Marshal(entry.Decision)
		if err != nil {
			return fmt.Errorf("marshal audit decision: %w", err)
		}
		decision = raw
	}
	var overrideReason sql.NullString
	if entry.OverrideReason != nil {
		overrideReason = sql.NullString{String: *entry.OverrideReason, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO enforcement_audit_log (
			id, tenant_id, occurred_at, event, action_type, entity_id,
			decision, override_reason, actor, request_id, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.ID,
		entry.TenantID.String(),
		entry.Timestamp,
		string(entry.Event),
		entry.ActionType,
		entry.EntityID,
		decision,
		overrideReason,
		entry.Actor,
		entry.RequestID,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, q models.AuditQuery) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, occurred_at, event, action_type, entity_id,
			   decision, override_reason, actor, request_id, detail
		FROM enforcement_audit_log
		WHERE tenant_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at DESC, seq DESC
		LIMIT $4
	`, q.TenantID.String(), q.Start, q.End, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			e              models.AuditEntry
			tenantID       string
			event          string
			decision       []byte
			overrideReason sql.NullString
		)
		if err := rows.Scan(&e.ID, &tenantID, &e.Timestamp, &event, &e.ActionType, &e.EntityID,
			&decision, &overrideReason, &e.Actor, &e.RequestID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.TenantID = id.TenantID(tenantID)
		e.Event = models.AuditEvent(event)
		e.Timestamp = e.Timestamp.UTC()
		if len(decision) > 0 {
			var d models.Decision
			dec := json.NewDecoder(bytes.NewReader(decision))
			dec.UseNumber()
			if err := dec.Decode(&d); err != nil {
				return nil, fmt.Errorf("decode audit decision: %w", err)
			}
			e.Decision = &d
		}
		if overrideReason.Valid {
			reason := overrideReason.String
			e.OverrideReason = &reason
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
