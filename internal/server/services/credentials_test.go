package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo users.Repository, h PasswordHasher, name, password string) *models.User {
	t.Helper()
	hash, err := h.Hash(password)
	require.NoError(t, err)
	u, err := repo.Save(context.Background(), &models.User{
		UserName: name, Email: name + "@x.io", PasswordHash: hash, Role: models.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func TestCredentialVerifier_Success(t *testing.T) {
	repo := users.NewMemoryRepository()
	h := newHasher()
	seeded := seedUser(t, repo, h, "alice", "pw1")

	v := newVerifier(t, repo, h)
	got, err := v.Verify(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
}

func TestCredentialVerifier_BadPassword(t *testing.T) {
	repo := users.NewMemoryRepository()
	h := newHasher()
	seedUser(t, repo, h, "alice", "pw1")

	v := newVerifier(t, repo, h)
	_, err := v.Verify(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, common.ErrBadCredentials)
	assert.EqualValues(t, 1, h.matches.Load())
}

func TestCredentialVerifier_UnknownUserStillCompares(t *testing.T) {
	repo := users.NewMemoryRepository()
	h := newHasher()

	v := newVerifier(t, repo, h)
	_, err := v.Verify(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.EqualValues(t, 1, h.matches.Load(), "a dummy comparison must run for unknown users")
}

func TestCredentialVerifier_StoreError(t *testing.T) {
	boom := errors.New("boom")
	v := newVerifier(t, &failingRepo{err: boom}, newHasher())

	_, err := v.Verify(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, common.ErrUserNotFound))
}

func TestNewCredentialVerifier_HasherFailure(t *testing.T) {
	v, err := NewCredentialVerifier(users.NewMemoryRepository(), brokenHasher{}, time.Second)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Contains(t, err.Error(), "entropy unavailable")
}

func TestNewCredentialVerifier_DummyHashReady(t *testing.T) {
	h := newHasher()
	v := newVerifier(t, users.NewMemoryRepository(), h)
	require.NotEmpty(t, v.dummyHash)
	assert.True(t, h.inner.Matches(dummyPassword, v.dummyHash))
}

func TestWithStoreTimeout(t *testing.T) {
	ctx, cancel := withStoreTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx2, cancel2 := withStoreTimeout(context.Background(), time.Minute)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}
