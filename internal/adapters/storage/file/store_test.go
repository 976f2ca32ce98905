package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReplaceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, "users", map[string]string{"userCount": "1", "user_email_0": "a@shop.test"}))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	got, err := reopened.Snapshot(ctx, "users")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"userCount": "1", "user_email_0": "a@shop.test"}, got)
}

func TestStore_ReplaceDropsOldKeys(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "users", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.Replace(ctx, "users", map[string]string{"c": "3"}))

	got, err := s.Snapshot(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c": "3"}, got)
}

func TestStore_ReplaceLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Replace(context.Background(), "credentials", map[string]string{"ENV": "Sandbox"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "credentials.yaml", entries[0].Name())
}

func TestStore_SnapshotOfMissingNamespaceIsEmpty(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	got, err := s.Snapshot(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "users", map[string]string{"userCount": "0"}))
	require.NoError(t, s.Clear(ctx, "users"))
	require.NoError(t, s.Clear(ctx, "users"))

	_, err = os.Stat(filepath.Join(dir, "users.yaml"))
	assert.True(t, os.IsNotExist(err))
}
