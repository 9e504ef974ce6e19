package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheKeyPrefix  = "catalog:collection:"
)

var errCacheMiss = errors.New("cache miss")

// kv is the slice of a cache client the repository needs.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisKV struct {
	c *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	return b, err
}

func (r redisKV) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.c.Set(ctx, key, val, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// CachedRepository is a read-through cache in front of another repository.
// Cache failures fall back to the wrapped repository.
type CachedRepository struct {
	next Repository
	kv   kv
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedRepository {
	return newCachedRepository(next, redisKV{c: client}, ttl, log)
}

func newCachedRepository(next Repository, store kv, ttl time.Duration, log *zap.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedRepository{next: next, kv: store, ttl: ttl, log: log}
}

func cacheKey(c Collection) string { return cacheKeyPrefix + c.Name }

func (r *CachedRepository) FetchCollection(ctx context.Context, c Collection) (CategorizedProducts, error) {
	key := cacheKey(c)

	b, err := r.kv.Get(ctx, key)
	switch {
	case err == nil:
		var cp CategorizedProducts
		uerr := json.Unmarshal(b, &cp)
		if uerr == nil {
			return cp, nil
		}
		r.log.Warn("cache entry unreadable", zap.String("key", key), zap.Error(uerr))
	case errors.Is(err, errCacheMiss):
	default:
		r.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	cp, err := r.next.FetchCollection(ctx, c)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(cp); err == nil {
		if err := r.kv.Set(ctx, key, b, r.ttl); err != nil {
			r.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return cp, nil
}

// Invalidate drops the cached copy of c.
func (r *CachedRepository) Invalidate(ctx context.Context, c Collection) error {
	return r.kv.Del(ctx, cacheKey(c))
}

// Ping probes only the wrapped repository. A Redis outage degrades reads to
// the wrapped repository and never makes the service unready.
func (r *CachedRepository) Ping(ctx context.Context) error {
	return ping(ctx, r.next)
}
