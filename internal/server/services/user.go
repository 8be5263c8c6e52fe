// Package services holds the server's authentication logic: credential
// checks, registration and login.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
)

// TokenIssuer mints a bearer token for a user.
type TokenIssuer interface {
	Issue(user *models.User, extra map[string]any) (string, error)
}

// UserService registers users and logs them in. Both operations return a
// freshly issued token.
type UserService struct {
	repomanager  repomanager.RepositoryManager
	tokens       TokenIssuer
	verifier     *CredentialVerifier
	hasher       PasswordHasher
	storeTimeout time.Duration
	log          logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, tokens TokenIssuer, verifier *CredentialVerifier,
	hasher PasswordHasher, storeTimeout time.Duration, log logging.Logger) *UserService {
	return &UserService{
		repomanager:  m,
		tokens:       tokens,
		verifier:     verifier,
		hasher:       hasher,
		storeTimeout: storeTimeout,
		log:          log.With("module", "services.user"),
	}
}

// Register creates a USER-role account and returns its token. The username
// is checked before the email and both before anything is written.
func (s *UserService) Register(ctx context.Context, username, email, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return "", common.ErrorValidation
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		UserName:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}

	txCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	err = s.repomanager.WithTx(txCtx, func(ctx context.Context, repo users.Repository) error {
		taken, err := repo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateUsername
		}

		taken, err = repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateEmail
		}

		user, err = repo.Save(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return "", err
		}
		s.log.Error(ctx, "register failed", "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login returns a new token for valid credentials. Unknown users and wrong
// passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) || errors.Is(err, common.ErrBadCredentials) {
			return "", common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "login failed", "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user, nil)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}
