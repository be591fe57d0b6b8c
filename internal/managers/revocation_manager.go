package managers

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RevocationMgr is the pluggable server-side session revocation capability.
// The in-memory implementation is process-local; multi-replica deployments
// select the Redis-backed one via REVOCATION_STORE=redis.
type RevocationMgr interface {
	Revoke(ctx context.Context, token string, exp time.Time) error
	IsRevoked(ctx context.Context, token string) bool
}

// MemoryRevocationStore keeps revoked tokens with their expiry in a
// mutex-guarded map. Reads purge expired entries lazily.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates the default in-memory revocation store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records the token until its expiry. Tokens already past expiry are
// not stored, presenting them fails signature-independent expiry checks anyway.
func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp.After(s.now()) {
		s.revoked[token] = exp
	}
	return nil
}

// IsRevoked reports whether the token has been revoked and purges any entries
// whose expiry has passed.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for t, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, t)
		}
	}

	_, revoked := s.revoked[token]
	return revoked
}

const revocationKeyPrefix = "wheels:revoked:"

// RedisRevocationStore shares the revocation list between replicas through a
// Redis TTL key per token.
type RedisRevocationStore struct {
	client *goredis.Client
}

// NewRedisRevocationStore connects to Redis at the given address.
func NewRedisRevocationStore(addr string) (*RedisRevocationStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info("Connected to Redis revocation store")
	return &RedisRevocationStore{client: client}, nil
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revocationKeyPrefix+token, "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) bool {
	n, err := s.client.Exists(ctx, revocationKeyPrefix+token).Result()
	if err != nil {
		log.Warn("Redis revocation lookup failed: ", err)
		return false
	}
	return n > 0
}
