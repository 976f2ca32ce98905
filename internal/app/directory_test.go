package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instore-payment-client/internal/adapters/storage/file"
	"instore-payment-client/internal/adapters/storage/memory"
	"instore-payment-client/internal/core/domain"
	"instore-payment-client/internal/prefs"
)

var partnerUsers = []domain.UserEntry{
	{Email: "z@shop.test", CanPerformAction: true},
	{Email: "a@shop.test", CanPerformAction: false},
	{Email: "m@shop.test", CanPerformAction: true},
}

func TestUserDirectory_RefreshThenLoadAfterRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := file.NewStore(dir)
	require.NoError(t, err)
	creds := prefs.NewCredentialStore(kv)
	require.NoError(t, creds.Save(ctx, testCreds))

	gw := new(MockGateway)
	gw.On("ListUsers", mock.Anything, testCreds).Return(partnerUsers, nil).Once()

	refreshed, err := NewUserDirectory(creds, gw, prefs.NewDirectoryStore(kv), nil).Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, partnerUsers, refreshed)

	// a new process sees the same list in the same order
	reopened, err := file.NewStore(dir)
	require.NoError(t, err)
	loaded, err := NewUserDirectory(prefs.NewCredentialStore(reopened), new(MockGateway), prefs.NewDirectoryStore(reopened), nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, partnerUsers, loaded)
}

func TestUserDirectory_RepeatedRefreshIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ListUsers", mock.Anything, testCreds).Return(partnerUsers, nil)
	directory := NewUserDirectory(f.creds, f.gateway, f.users, nil)
	ctx := context.Background()

	_, err := directory.Refresh(ctx)
	require.NoError(t, err)
	first, err := directory.Load(ctx)
	require.NoError(t, err)

	_, err = directory.Refresh(ctx)
	require.NoError(t, err)
	second, err := directory.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, partnerUsers, second)
}

func TestUserDirectory_TransportFailureClearsPersistedList(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ListUsers", mock.Anything, testCreds).Return(nil, domain.NewHTTPStatusError(500))
	directory := NewUserDirectory(f.creds, f.gateway, f.users, nil)
	ctx := context.Background()

	before, err := directory.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	_, err = directory.Refresh(ctx)

	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	after, err := directory.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestUserDirectory_RejectionLeavesListUntouched(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ListUsers", mock.Anything, testCreds).Return(nil, domain.NewPartnerRejection("Merchant is not active"))
	directory := NewUserDirectory(f.creds, f.gateway, f.users, nil)
	ctx := context.Background()

	_, err := directory.Refresh(ctx)

	assert.Equal(t, "Merchant is not active", domain.PublicMessage(err))
	after, err := directory.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserEntry{{Email: "a@b.com", CanPerformAction: true}}, after)
}

func TestUserDirectory_RefreshWithoutCredentials(t *testing.T) {
	kv := memory.NewStore()
	gw := new(MockGateway)
	directory := NewUserDirectory(prefs.NewCredentialStore(kv), gw, prefs.NewDirectoryStore(kv), nil)

	_, err := directory.Refresh(context.Background())

	assert.ErrorIs(t, err, domain.ErrCredentialsMissing)
	gw.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}
