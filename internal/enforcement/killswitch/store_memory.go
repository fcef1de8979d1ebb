package killswitch

import (
	"context"
	"sync"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemoryStore publishes an immutable *KillSwitchState per tenant. Put
// swaps the pointer, so readers never block and never see a torn state.
type InMemoryStore struct {
	states sync.Map // id.TenantID -> *models.KillSwitchState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID) (*models.KillSwitchState, error) {
	v, ok := s.states.Load(tenantID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	state := *v.(*models.KillSwitchState)
	return &state, nil
}

func (s *InMemoryStore) Put(_ context.Context, state models.KillSwitchState) error {
	if state.ToggledAt != nil {
		t := *state.ToggledAt
		state.ToggledAt = &t
	}
	s.states.Store(state.TenantID, &state)
	return nil
}
