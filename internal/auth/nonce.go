package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore marks single-use sign-in codes as consumed. Consume returns
// ErrCodeUsed when the nonce was seen before.
type NonceStore interface {
	Consume(ctx context.Context, nonce string, ttl time.Duration) error
}

// RedisNonceStore tracks consumed nonces in Redis with a TTL matching the
// code lifetime, so entries expire on their own.
type RedisNonceStore struct {
	client redis.UniversalClient
}

func NewRedisNonceStore(client redis.UniversalClient) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func (s *RedisNonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, "auth:nonce:"+nonce, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("consume nonce: %w", err)
	}
	if !ok {
		return ErrCodeUsed
	}
	return nil
}

// MemoryNonceStore is an in-process NonceStore for tests and development.
type MemoryNonceStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{seen: make(map[string]time.Time)}
}

func (s *MemoryNonceStore) Consume(_ context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if exp, ok := s.seen[nonce]; ok && now.Before(exp) {
		return ErrCodeUsed
	}
	s.seen[nonce] = now.Add(ttl)
	return nil
}
