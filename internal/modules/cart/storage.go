package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Storage persists the encoded lines of each cart. Load returns nil, nil for
// a cart that was never saved or has expired.
type Storage interface {
	Load(ctx context.Context, cartID string) ([]byte, error)
	Save(ctx context.Context, cartID string, payload []byte) error
	Delete(ctx context.Context, cartID string) error
}

// EncodeLines renders lines as a JSON array of {productId, quantity} objects.
func EncodeLines(lines []Line) []byte {
	if lines == nil {
		lines = []Line{}
	}
	// Line holds only a uuid and an int, so marshalling cannot fail.
	b, _ := json.Marshal(lines)
	return b
}

// DecodeLines parses a stored payload. Malformed or legacy-shaped payloads
// decode to an empty cart rather than an error, and lines without a product
// id or with a non-positive quantity are dropped.
func DecodeLines(payload []byte) []Line {
	if len(payload) == 0 {
		return nil
	}
	var raw []Line
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	out := raw[:0]
	for _, ln := range raw {
		if ln.ProductID == uuid.Nil || ln.Quantity <= 0 {
			continue
		}
		out = append(out, ln)
	}
	return out
}

const redisKeyPrefix = "storefront:cart:"

// RedisStorage keeps each cart under its own key with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage connects using a redis:// URL and verifies the connection.
func NewRedisStorage(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

// NewRedisStorageFromClient wraps an existing client.
func NewRedisStorageFromClient(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) key(cartID string) string { return redisKeyPrefix + cartID }

func (s *RedisStorage) Load(ctx context.Context, cartID string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return b, nil
}

func (s *RedisStorage) Save(ctx context.Context, cartID string, payload []byte) error {
	if err := s.client.Set(ctx, s.key(cartID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, s.key(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error { return s.client.Close() }

// MemoryStorage is a process-local Storage used when no Redis is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{carts: map[string][]byte{}} }

func (s *MemoryStorage) Load(_ context.Context, cartID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.carts[cartID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStorage) Save(_ context.Context, cartID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cartID] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}
