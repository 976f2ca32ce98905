package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instore-payment-client/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStore_ReplaceDropsOldKeys(t *testing.T) {
	_, rdb := newTestClient(t)
	s := NewStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "users", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.Replace(ctx, "users", map[string]string{"c": "3"}))

	got, err := s.Snapshot(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, got)
}

func TestStore_ReplaceWithEmptyMapClearsNamespace(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "users", map[string]string{"a": "1"}))
	require.NoError(t, s.Replace(ctx, "users", map[string]string{}))

	got, err := s.Snapshot(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists(keyPrefix+"users"))
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewStore(rdb)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "credentials", map[string]string{"apiKey": "k"}))
	require.NoError(t, s.Replace(ctx, "users", map[string]string{"userCount": "0"}))
	require.NoError(t, s.Clear(ctx, "users"))

	creds, err := s.Snapshot(ctx, "credentials")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apiKey": "k"}, creds)
	assert.Equal(t, "k", mr.HGet(keyPrefix+"credentials", "apiKey"))

	users, err := s.Snapshot(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStore_ServerGoneIsStorageUnavailable(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewStore(rdb)
	ctx := context.Background()
	mr.Close()

	_, err := s.Snapshot(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, s.Replace(ctx, "users", map[string]string{"a": "1"}), domain.ErrStorageUnavailable)
	assert.ErrorIs(t, s.Clear(ctx, "users"), domain.ErrStorageUnavailable)
}
