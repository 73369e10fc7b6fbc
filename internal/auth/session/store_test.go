package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivemhub/forumd/internal/cache"
)

func newStore(t *testing.T, now func() time.Time) *StoreIssuer {
	t.Helper()
	i, err := NewStoreIssuer(StoreConfig{
		Cache: cache.NewMemory(time.Minute),
		TTL:   time.Hour,
		Now:   now,
	})
	require.NoError(t, err)
	return i
}

func TestStoreMintValidate(t *testing.T) {
	i := newStore(t, nil)
	ctx := context.Background()

	cred, err := i.Mint(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, cred)

	userID, err := i.Validate(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.False(t, i.Stateless())
}

func TestStoreRequiresCache(t *testing.T) {
	_, err := NewStoreIssuer(StoreConfig{})
	assert.Error(t, err)
}

func TestStoreUnknownCredential(t *testing.T) {
	i := newStore(t, nil)
	_, err := i.Validate(context.Background(), "never-minted")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStoreEmptyCredential(t *testing.T) {
	i := newStore(t, nil)
	_, err := i.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStoreExpiredCredential(t *testing.T) {
	minted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := minted
	i := newStore(t, func() time.Time { return clock })
	ctx := context.Background()

	cred, err := i.Mint(ctx, 7)
	require.NoError(t, err)

	clock = minted.Add(time.Hour + time.Second)
	_, err = i.Validate(ctx, cred)
	assert.ErrorIs(t, err, ErrExpired)

	// The eager cleanup turned it into a plain unknown credential.
	_, err = i.Validate(ctx, cred)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStoreRevokeIsImmediate(t *testing.T) {
	i := newStore(t, nil)
	ctx := context.Background()

	cred, err := i.Mint(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, i.Revoke(ctx, cred))

	_, err = i.Validate(ctx, cred)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStoreRevokeUnknownCredential(t *testing.T) {
	i := newStore(t, nil)
	assert.NoError(t, i.Revoke(context.Background(), "never-minted"))
	assert.NoError(t, i.Revoke(context.Background(), ""))
}

func TestStoreCredentialsAreUnique(t *testing.T) {
	i := newStore(t, nil)
	ctx := context.Background()

	a, err := i.Mint(ctx, 1)
	require.NoError(t, err)
	b, err := i.Mint(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Both sessions for the same user stay independently valid.
	ua, err := i.Validate(ctx, a)
	require.NoError(t, err)
	ub, err := i.Validate(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, ua, ub)
}
