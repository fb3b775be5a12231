package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"spacetraveling/internal/listing"
)

const keyPrefix = "spacetraveling:view:"

// RedisStore keeps views as JSON strings that expire after the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, state listing.State) (string, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal view: %w", err)
	}

	id := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+id, body, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store view: %w", err)
	}

	return id, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (listing.State, error) {
	body, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return listing.State{}, ErrViewNotFound
	}
	if err != nil {
		return listing.State{}, fmt.Errorf("load view: %w", err)
	}

	var state listing.State
	if err := json.Unmarshal(body, &state); err != nil {
		return listing.State{}, fmt.Errorf("decode view: %w", err)
	}

	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state listing.State) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}

	// XX only overwrites views that still exist
	ok, err := s.client.SetXX(ctx, keyPrefix+id, body, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store view: %w", err)
	}
	if !ok {
		return ErrViewNotFound
	}

	return nil
}
