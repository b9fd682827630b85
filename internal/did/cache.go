package did

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	"github.com/redis/go-redis/v9"

	"spverifier/internal/platform/metrics"
	"spverifier/pkg/platform/circuit"
)

// SharedCache is a cache tier shared between verifier instances.
type SharedCache interface {
	Get(ctx context.Context, did string) ([]byte, bool, error)
	Set(ctx context.Context, did string, raw []byte, ttl time.Duration) error
}

// RedisCache stores resolved documents as JSON under a key prefix.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, prefix: "verifier:did:"}
}

func (c *RedisCache) Get(ctx context.Context, did string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+did).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return raw, true, nil
}

func (c *RedisCache) Set(ctx context.Context, did string, raw []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+did, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CachedResolver keeps resolved documents in an in-process LRU and, when
// configured, a shared tier. Misses and failures are never cached.
//
// Shared-tier failures feed a circuit breaker. While it is open, reads skip
// the shared tier; writes still go through and close it again once the tier
// recovers.
type CachedResolver struct {
	next    Resolver
	local   gcache.Cache
	shared  SharedCache
	breaker *circuit.Breaker
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CacheOption func(*CachedResolver)

// WithSharedCache adds a second cache tier behind the LRU.
func WithSharedCache(c SharedCache) CacheOption {
	return func(r *CachedResolver) { r.shared = c }
}

// WithSharedCacheBreaker replaces the default shared-tier breaker.
func WithSharedCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(r *CachedResolver) { r.breaker = b }
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(r *CachedResolver) { r.metrics = m }
}

func NewCachedResolver(next Resolver, size int, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *CachedResolver {
	r := &CachedResolver{
		next:   next,
		local:  gcache.New(size).LRU().Expiration(ttl).Build(),
		ttl:    ttl,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = circuit.New("did-shared-cache")
	}
	return r
}

// Resolve implements Resolver. Each call returns a fresh copy.
func (r *CachedResolver) Resolve(ctx context.Context, did string) (Document, error) {
	did = stripURL(did)

	if v, err := r.local.Get(did); err == nil {
		if raw, ok := v.([]byte); ok {
			r.observe("local", "hit")
			return decode(raw)
		}
	}
	r.observe("local", "miss")

	if r.shared != nil && !r.breaker.IsOpen() {
		raw, ok, err := r.shared.Get(ctx, did)
		r.record(ctx, err)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "shared DID cache read failed", "did", did, "error", err)
		case ok:
			r.observe("shared", "hit")
			_ = r.local.Set(did, raw)
			return decode(raw)
		default:
			r.observe("shared", "miss")
		}
	}

	doc, err := r.next.Resolve(ctx, did)
	if err != nil || doc == nil {
		return doc, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode DID document: %w", err)
	}
	_ = r.local.Set(did, raw)
	if r.shared != nil {
		err := r.shared.Set(ctx, did, raw, r.ttl)
		r.record(ctx, err)
		if err != nil {
			r.logger.WarnContext(ctx, "shared DID cache write failed", "did", did, "error", err)
		}
	}
	return decode(raw)
}

func (r *CachedResolver) record(ctx context.Context, err error) {
	var change circuit.StateChange
	if err != nil {
		_, change = r.breaker.RecordFailure()
	} else {
		_, change = r.breaker.RecordSuccess()
	}
	switch {
	case change.Opened:
		r.logger.WarnContext(ctx, "shared DID cache disabled after repeated failures", "breaker", r.breaker.Name())
	case change.Closed:
		r.logger.InfoContext(ctx, "shared DID cache re-enabled", "breaker", r.breaker.Name())
	}
}

func (r *CachedResolver) observe(tier, outcome string) {
	if r.metrics != nil {
		r.metrics.IncrementDIDCacheLookup(tier, outcome)
	}
}

func decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cached DID document: %w", err)
	}
	return doc, nil
}
