package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgate/internal/enforcement/models"
)

func TestNewEntry_CarriesAuditIdentity(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	audit := models.AuditEntry{
		ID:        uuid.New(),
		TenantID:  "acme",
		Timestamp: ts,
		Event:     models.EventOverrideConfirmed,
		RequestID: "req-1",
	}

	entry, err := NewEntry(audit)
	require.NoError(t, err)
	assert.Equal(t, audit.ID, entry.ID)
	assert.Equal(t, "acme", entry.TenantID)
	assert.Equal(t, string(models.EventOverrideConfirmed), entry.Event)
	assert.Equal(t, ts, entry.CreatedAt)
	assert.True(t, entry.IsPending())

	var decoded models.AuditEntry
	require.NoError(t, json.Unmarshal(entry.Payload, &decoded))
	assert.Equal(t, audit.ID, decoded.ID)
}

func TestInMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Now()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, store.Append(ctx, &Entry{ID: ids[i], TenantID: "acme", CreatedAt: now}))
	}

	batch, err := store.FetchUnprocessed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, ids[0], batch[0].ID)
	assert.Equal(t, ids[1], batch[1].ID)

	require.NoError(t, store.MarkProcessed(ctx, ids[0], now.Add(-2*time.Hour)))
	assert.Error(t, store.MarkProcessed(ctx, ids[0], now), "second mark must fail")

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	deleted, err := store.DeleteProcessedBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	batch, err = store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}
