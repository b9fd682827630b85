//go:build integration

package did

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spverifier/pkg/testutil/containers"
)

func TestRedisCacheIntegration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	cache := NewRedisCache(rc.Client)

	_, ok, err := cache.Get(ctx, "did:web:example.com")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "did:web:example.com", []byte(`{"id":"did:web:example.com"}`), time.Minute))
	raw, ok, err := cache.Get(ctx, "did:web:example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"did:web:example.com"}`, string(raw))

	ttl, err := rc.Client.TTL(ctx, "verifier:did:did:web:example.com").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	next := &countingResolver{doc: Document{"n": "1"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	first := NewCachedResolver(next, 4, time.Minute, logger, WithSharedCache(cache))
	second := NewCachedResolver(next, 4, time.Minute, logger, WithSharedCache(cache))

	_, err = first.Resolve(ctx, "did:web:shared.example")
	require.NoError(t, err)
	doc, err := second.Resolve(ctx, "did:web:shared.example")
	require.NoError(t, err)
	require.Equal(t, "did:web:shared.example", doc.ID())
	require.Equal(t, 1, next.calls)
}
