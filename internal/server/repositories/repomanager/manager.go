package repomanager

import (
	"context"

	"github.com/dmitrijs2005/farmhand/internal/server/repositories/fields"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
)

// RepositoryManager owns the storage backend and vends repositories bound
// to it, either directly or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Fields() fields.Repository

	// WithTx runs fn with a repository whose reads and writes are atomic
	// with respect to other WithTx calls.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error

	Close() error
}
