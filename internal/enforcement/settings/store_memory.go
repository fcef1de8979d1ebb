package settings

import (
	"context"
	"fmt"
	"sync"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	platformsync "trustgate/pkg/platform/sync"
	"trustgate/pkg/platform/sentinel"
)

// InMemoryStore keeps settings in a map. Execute serializes per tenant with
// a sharded mutex so a read-modify-write never interleaves with another
// write for the same tenant; reads take only the map lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	settings map[id.TenantID]models.EnforcementSettings
	tenants  *platformsync.ShardedMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		settings: make(map[id.TenantID]models.EnforcementSettings),
		tenants:  platformsync.NewShardedMutex(),
	}
}

func (s *InMemoryStore) Find(_ context.Context, tenantID id.TenantID) (*models.EnforcementSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.settings[tenantID]
	if !ok {
		return nil, fmt.Errorf("settings for tenant %s: %w", tenantID, sentinel.ErrNotFound)
	}
	return cloneSettings(stored), nil
}

func (s *InMemoryStore) Execute(ctx context.Context, tenantID id.TenantID, mutate MutateFunc) (*models.EnforcementSettings, error) {
	var result *models.EnforcementSettings
	err := s.tenants.Do(tenantID.String(), func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.RLock()
		current, found := s.settings[tenantID]
		s.mu.RUnlock()
		if !found {
			current = models.DefaultSettings(tenantID)
		}

		next, err := mutate(*cloneSettings(current), found)
		if err != nil {
			return err
		}
		next.TenantID = tenantID

		s.mu.Lock()
		s.settings[tenantID] = next
		s.mu.Unlock()

		result = cloneSettings(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cloneSettings copies pointer fields so callers cannot alias stored state.
func cloneSettings(in models.EnforcementSettings) *models.EnforcementSettings {
	out := in
	if in.MaxCampaignBudget != nil {
		v := *in.MaxCampaignBudget
		out.MaxCampaignBudget = &v
	}
	if in.UpdatedAt != nil {
		t := *in.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}
