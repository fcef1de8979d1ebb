package audit

import (
	"context"
	"slices"
	"sync"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.TenantID][]models.AuditEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.TenantID][]models.AuditEntry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TenantID] = append(s.entries[entry.TenantID], entry.Clone())
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, q models.AuditQuery) ([]models.AuditEntry, error) {
	s.mu.RLock()
	all := s.entries[q.TenantID]
	matched := make([]models.AuditEntry, 0, min(len(all), q.Limit))
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if e.Timestamp.Before(q.Start) || e.Timestamp.After(q.End) {
			continue
		}
		matched = append(matched, e.Clone())
	}
	s.mu.RUnlock()

	// Entries are appended in time order except under clock skew between
	// writers; the stable sort keeps insertion order for equal timestamps.
	slices.SortStableFunc(matched, func(a, b models.AuditEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}
