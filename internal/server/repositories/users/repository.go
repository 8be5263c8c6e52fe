// Package users declares the user store contract and its PostgreSQL and
// in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/farmhand/internal/server/models"
)

// Repository is the user store the authentication core depends on.
type Repository interface {
	// FindByUsername returns common.ErrorNotFound when no user has username.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save inserts user, assigning an ID when it has none. A username or
	// email collision yields common.ErrDuplicateUsername or
	// common.ErrDuplicateEmail.
	Save(ctx context.Context, user *models.User) (*models.User, error)
}
