package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
)

// PasswordHasher hashes passwords and compares candidates against stored
// hashes. Matches must compare in constant time.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) bool
}

const dummyPassword = "farmhand-timing-equaliser"

// CredentialVerifier checks a username/password pair against the user store.
type CredentialVerifier struct {
	users        users.Repository
	hasher       PasswordHasher
	storeTimeout time.Duration

	// dummyHash is compared against when the user is unknown, so that a
	// miss costs as much as a wrong password.
	dummyHash string
}

// NewCredentialVerifier hashes the timing dummy up front and fails if the
// hasher cannot produce it.
func NewCredentialVerifier(repo users.Repository, hasher PasswordHasher, storeTimeout time.Duration) (*CredentialVerifier, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: hash dummy password: %v", common.ErrorInternal, err)
	}
	return &CredentialVerifier{users: repo, hasher: hasher, storeTimeout: storeTimeout, dummyHash: dummy}, nil
}

// Verify returns the stored user when password matches. Unknown users yield
// common.ErrUserNotFound and wrong passwords common.ErrBadCredentials; a
// hash comparison runs in both cases.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	ctx, cancel := withStoreTimeout(ctx, v.storeTimeout)
	defer cancel()

	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			v.hasher.Matches(password, v.dummyHash)
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !v.hasher.Matches(password, user.PasswordHash) {
		return nil, common.ErrBadCredentials
	}
	return user, nil
}

// withStoreTimeout bounds a store call; a non-positive timeout leaves ctx as is.
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
