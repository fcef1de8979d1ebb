package rules

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"trustgate/internal/enforcement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemoryStore keeps an ordered rule slice per tenant, each behind its own
// lock so tenants never contend with each other.
type InMemoryStore struct {
	tenants sync.Map // id.TenantID -> *tenantRules
}

type tenantRules struct {
	mu    sync.RWMutex
	rules []models.EnforcementRule
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) forTenant(tenantID id.TenantID) *tenantRules {
	v, _ := s.tenants.LoadOrStore(tenantID, &tenantRules{})
	return v.(*tenantRules)
}

func (s *InMemoryStore) Insert(_ context.Context, rule models.EnforcementRule) error {
	t := s.forTenant(rule.TenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.rules {
		if existing.ID == rule.ID {
			return fmt.Errorf("rule %s: %w", rule.ID, sentinel.ErrConflict)
		}
	}
	t.rules = append(t.rules, rule)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, tenantID id.TenantID, ruleID id.RuleID) (bool, error) {
	t := s.forTenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := slices.IndexFunc(t.rules, func(r models.EnforcementRule) bool { return r.ID == ruleID })
	if idx < 0 {
		return false, nil
	}
	t.rules = slices.Delete(t.rules, idx, idx+1)
	return true, nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID id.TenantID) ([]models.EnforcementRule, error) {
	v, ok := s.tenants.Load(tenantID)
	if !ok {
		return []models.EnforcementRule{}, nil
	}
	t := v.(*tenantRules)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rules), nil
}
