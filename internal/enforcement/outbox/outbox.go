// Package outbox holds audit entries awaiting publication to the event
// stream. Rows are written in the same transaction as the audit entry and
// drained by the relay worker.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/enforcement/models"
)

// Entry is one pending publication.
type Entry struct {
	ID          uuid.UUID
	TenantID    string
	Event       string
	RequestID   string
	Payload     []byte // JSON-encoded models.AuditEntry
	CreatedAt   time.Time
	ProcessedAt *time.Time // nil while pending
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry wraps an audit entry. The outbox id equals the audit id so
// consumers can deduplicate redeliveries.
func NewEntry(entry models.AuditEntry) (*Entry, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return &Entry{
		ID:        entry.ID,
		TenantID:  entry.TenantID.String(),
		Event:     string(entry.Event),
		RequestID: entry.RequestID,
		Payload:   payload,
		CreatedAt: entry.Timestamp,
	}, nil
}

// Store is the relay's view of the outbox. Implementations must be safe
// for concurrent use.
type Store interface {
	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)
	// DeleteProcessedBefore removes published entries older than before.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
