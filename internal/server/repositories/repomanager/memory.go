package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/farmhand/internal/server/repositories/fields"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
)

// MemoryRepositoryManager backs the store with process memory. Transactions
// are serialized; memory has nothing to roll back since Save is the only
// write and it is the last step of every transaction.
type MemoryRepositoryManager struct {
	repo   *users.MemoryRepository
	fields *fields.MemoryRepository
	txMu   sync.Mutex
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository(), fields: fields.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.repo }

func (m *MemoryRepositoryManager) Fields() fields.Repository { return m.fields }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
