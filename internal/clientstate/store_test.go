package clientstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func openStore(t *testing.T, kv *redis.Client, session string) *Store {
	t.Helper()
	manager, err := NewManager(kv, Options{PersistTTL: time.Hour, EphemeralTTL: time.Minute})
	require.NoError(t, err)
	store, err := manager.Open(context.Background(), session)
	require.NoError(t, err)
	return store
}

func TestInitReadsPersistedTokens(t *testing.T) {
	ctx := context.Background()
	kv := redis.NewMemory()
	first := openStore(t, kv, "sess-1")
	assert.False(t, first.IsAuthenticated())

	require.NoError(t, first.SignIn(ctx, &marketplace.AuthResult{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         &marketplace.User{ID: "u1", Email: "a@b.c", Role: "buyer"},
	}))

	reopened := openStore(t, kv, "sess-1")
	assert.True(t, reopened.IsAuthenticated())
	require.NotNil(t, reopened.User())
	assert.Equal(t, "u1", reopened.User().ID)

	pair, err := reopened.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, marketplace.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, pair)

	other := openStore(t, kv, "sess-2")
	assert.False(t, other.IsAuthenticated())
}

func TestClearKeepsCartAndCooldown(t *testing.T) {
	ctx := context.Background()
	kv := redis.NewMemory()
	store := openStore(t, kv, "sess-1")
	require.NoError(t, store.SaveTokens(ctx, marketplace.TokenPair{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.PutJSON(ctx, KeyCart, []string{"item"}, 0))
	require.NoError(t, store.PutJSON(ctx, KeyWishlist, []string{"p1"}, 0))
	require.NoError(t, store.SetOTPResendTimestamp(ctx, time.UnixMilli(1700000000000)))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, store.IsAuthenticated())

	pair, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, pair.AccessToken)

	var cart []string
	found, err := store.GetJSON(ctx, KeyCart, &cart)
	require.NoError(t, err)
	assert.True(t, found)

	var wishlist []string
	found, err = store.GetJSON(ctx, KeyWishlist, &wishlist)
	require.NoError(t, err)
	assert.False(t, found)

	at, ok, err := store.OTPResendTimestamp(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), at.UnixMilli())
}

func TestSignInDropsPreviousAccountData(t *testing.T) {
	ctx := context.Background()
	kv := redis.NewMemory()
	store := openStore(t, kv, "sess-1")
	require.NoError(t, store.SignIn(ctx, &marketplace.AuthResult{
		AccessToken:  "a-access",
		RefreshToken: "a-refresh",
		User:         &marketplace.User{ID: "a", Email: "a@b.c"},
	}))
	require.NoError(t, store.PutJSON(ctx, KeyCards, []string{"a-card"}, 0))
	require.NoError(t, store.PutJSON(ctx, KeyWishlist, []string{"p1"}, 0))
	require.NoError(t, store.PutJSON(ctx, KeyCart, []string{"item"}, 0))

	// Second account's result carries neither a refresh token nor a user.
	require.NoError(t, store.SignIn(ctx, &marketplace.AuthResult{AccessToken: "b-access"}))
	assert.True(t, store.IsAuthenticated())
	assert.Nil(t, store.User())

	pair, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, marketplace.TokenPair{AccessToken: "b-access"}, pair)

	for _, name := range []string{KeyCards, KeyWishlist, KeyUser} {
		var out any
		found, err := store.GetJSON(ctx, name, &out)
		require.NoError(t, err)
		assert.False(t, found, name)
	}

	var cart []string
	found, err := store.GetJSON(ctx, KeyCart, &cart)
	require.NoError(t, err)
	assert.True(t, found)

	reopened := openStore(t, kv, "sess-1")
	assert.Nil(t, reopened.User())
}

type failingKV struct {
	*redis.Client
}

func (f failingKV) Del(context.Context, ...string) error {
	return errors.New("redis down")
}

func TestClearCombinesFailures(t *testing.T) {
	manager, err := NewManager(failingKV{redis.NewMemory()}, Options{})
	require.NoError(t, err)
	store, err := manager.Open(context.Background(), "sess")
	require.NoError(t, err)

	err = store.Clear(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
}

func TestSignupEmailUsesEphemeralLifetime(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, redis.NewMemory(), "sess")
	require.NoError(t, store.SetSignupEmail(ctx, "new@b.c"))
	email, err := store.SignupEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@b.c", email)
	require.NoError(t, store.ClearSignupEmail(ctx))
	email, err = store.SignupEmail(ctx)
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestOpenRequiresSessionID(t *testing.T) {
	manager, err := NewManager(redis.NewMemory(), Options{})
	require.NoError(t, err)
	_, err = manager.Open(context.Background(), " ")
	assert.Error(t, err)
}
