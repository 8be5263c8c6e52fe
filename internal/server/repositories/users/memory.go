package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It is used when no
// database DSN is configured, and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byName  map[string]*models.User
	byEmail map[string]struct{}
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byName:  make(map[string]*models.User),
		byEmail: make(map[string]struct{}),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.UserName]; ok {
		return nil, common.ErrDuplicateUsername
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = r.now().UTC()

	stored := *user
	r.byName[stored.UserName] = &stored
	r.byEmail[stored.Email] = struct{}{}

	return user, nil
}

// FindByUsername returns a copy, so callers cannot mutate the stored user.
func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	found := *u
	return &found, nil
}

func (r *MemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[username]
	return ok, nil
}

func (r *MemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

// Len reports how many users are stored.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
