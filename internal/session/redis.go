package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

const sessionPrefix = "session:v1:"

// RedisStore keeps sessions as JSON documents with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load fetches the session and extends its lifetime.
func (s *RedisStore) Load(ctx context.Context, token string) (membership.Account, error) {
	raw, err := s.client.GetEx(ctx, sessionPrefix+token, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return membership.Account{}, ErrNotFound
	}
	if err != nil {
		return membership.Account{}, fmt.Errorf("load session: %w", err)
	}
	var acct membership.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return membership.Account{}, fmt.Errorf("decode session: %w", err)
	}
	return acct, nil
}

// Save stores the account snapshot under the token.
func (s *RedisStore) Save(ctx context.Context, token string, acct membership.Account) error {
	payload, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+token, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Refresh replaces the snapshot only while the key exists (SET XX), so a
// logged-out session stays gone.
func (s *RedisStore) Refresh(ctx context.Context, token string, acct membership.Account) error {
	payload, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, sessionPrefix+token, payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Clear removes the session. Clearing an unknown token is not an error.
func (s *RedisStore) Clear(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
