package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAdapter_FixedWindow(t *testing.T) {
	mr, rdb := newTestClient(t)
	limiter := NewRateLimiterAdapter(rdb)
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		allowed, err := limiter.IsAllowed(ctx, "10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
	}
	assert.Equal(t, time.Minute, mr.TTL(rateLimitPrefix+"10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)

	allowed, err := limiter.IsAllowed(ctx, "10.0.0.1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterAdapter_KeysAreIndependent(t *testing.T) {
	_, rdb := newTestClient(t)
	limiter := NewRateLimiterAdapter(rdb)
	ctx := context.Background()

	allowed, err := limiter.IsAllowed(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.IsAllowed(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
