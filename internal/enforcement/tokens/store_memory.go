package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trustgate/internal/enforcement/models"
	"trustgate/pkg/platform/sentinel"
)

// InMemoryStore guards every token with a single mutex, which makes the
// validate-then-mark sequence of Execute atomic.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*models.ConfirmationToken
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]*models.ConfirmationToken)}
}

func (s *InMemoryStore) Create(_ context.Context, token *models.ConfirmationToken) error {
	if token == nil {
		return fmt.Errorf("token is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.Token]; exists {
		return fmt.Errorf("confirmation token: %w", sentinel.ErrConflict)
	}
	s.tokens[token.Token] = cloneToken(token)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, token string) (*models.ConfirmationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneToken(record), nil
}

func (s *InMemoryStore) Execute(ctx context.Context, token string, validate ValidateFunc, mutate MutateFunc) (*models.ConfirmationToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := cloneToken(record)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.tokens[token] = working
	return cloneToken(working), nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, record := range s.tokens {
		if record.ExpiresAt.Before(before) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
