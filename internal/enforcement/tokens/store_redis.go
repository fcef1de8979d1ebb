package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trustgate/internal/enforcement/models"
	"trustgate/pkg/platform/sentinel"
)

const (
	tokenKeyPrefix = "confirmation_token:"

	// maxExecuteAttempts bounds optimistic-lock retries. A retry after a lost
	// race re-reads the token, which then reports already used.
	maxExecuteAttempts = 5
)

// RedisStore keeps tokens as JSON strings. Keys expire on their own after
// the token TTL plus the retention window, so DeleteExpired is a no-op.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	now       func() time.Time
}

func NewRedis(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention, now: time.Now}
}

func (s *RedisStore) key(token string) string {
	return tokenKeyPrefix + token
}

func (s *RedisStore) keyTTL(t *models.ConfirmationToken) time.Duration {
	ttl := t.ExpiresAt.Sub(s.now()) + s.retention
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisStore) Create(ctx context.Context, token *models.ConfirmationToken) error {
	if token == nil {
		return fmt.Errorf("token is required: %w", sentinel.ErrInvalidInput)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal confirmation token: %w", err)
	}
	created, err := s.client.SetNX(ctx, s.key(token.Token), data, s.keyTTL(token)).Result()
	if err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}
	if !created {
		return fmt.Errorf("confirmation token: %w", sentinel.ErrConflict)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, token string) (*models.ConfirmationToken, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get confirmation token: %w", err)
	}
	var record models.ConfirmationToken
	if err := decodeJSON(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal confirmation token: %w", err)
	}
	return &record, nil
}

// Execute validates and mutates a token under a WATCH optimistic lock.
func (s *RedisStore) Execute(ctx context.Context, token string, validate ValidateFunc, mutate MutateFunc) (*models.ConfirmationToken, error) {
	key := s.key(token)
	var result *models.ConfirmationToken

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get confirmation token for execute: %w", err)
		}

		var record models.ConfirmationToken
		if err := decodeJSON(data, &record); err != nil {
			return fmt.Errorf("unmarshal confirmation token: %w", err)
		}
		if err := validate(&record); err != nil {
			return err
		}
		mutate(&record)

		updated, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("marshal confirmation token: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		result = &record
		return nil
	}

	for attempt := 0; attempt < maxExecuteAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("confirmation token contention: %w", sentinel.ErrUnavailable)
}

func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
