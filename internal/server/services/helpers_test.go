package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/cryptox"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/auth"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/fields"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte(strings.Repeat("k", 32))

func newCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	c, err := auth.NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return c
}

// countingHasher records how many comparisons ran.
type countingHasher struct {
	inner   PasswordHasher
	matches atomic.Int32
}

func (h *countingHasher) Hash(p string) (string, error) { return h.inner.Hash(p) }
func (h *countingHasher) Matches(p, hash string) bool {
	h.matches.Add(1)
	return h.inner.Matches(p, hash)
}

func newHasher() *countingHasher {
	return &countingHasher{inner: cryptox.NewBcryptHasher(bcrypt.MinCost)}
}

func newVerifier(t *testing.T, repo users.Repository, h PasswordHasher) *CredentialVerifier {
	t.Helper()
	v, err := NewCredentialVerifier(repo, h, time.Second)
	if err != nil {
		t.Fatalf("NewCredentialVerifier: %v", err)
	}
	return v
}

// brokenHasher cannot hash anything.
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("entropy unavailable") }
func (brokenHasher) Matches(string, string) bool { return false }

func newService(t *testing.T) (*UserService, *repomanager.MemoryRepositoryManager, *auth.TokenCodec) {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()
	codec := newCodec(t)
	h := newHasher()
	v := newVerifier(t, m.Users(), h)
	return NewUserService(m, codec, v, h, time.Second, logging.Nop()), m, codec
}

// failingRepo fails every call with err.
type failingRepo struct {
	err error
}

func (f *failingRepo) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, f.err
}
func (f *failingRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, f.err }
func (f *failingRepo) ExistsByEmail(context.Context, string) (bool, error)    { return false, f.err }
func (f *failingRepo) Save(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}

func (f *failingRepo) Create(context.Context, *models.Field) (*models.Field, error) { return nil, f.err }
func (f *failingRepo) List(context.Context) ([]models.Field, error)                 { return nil, f.err }
func (f *failingRepo) Get(context.Context, int) (*models.Field, error)              { return nil, f.err }
func (f *failingRepo) Update(context.Context, int, models.FieldPatch) (*models.Field, error) {
	return nil, f.err
}
func (f *failingRepo) Delete(context.Context, int) error { return f.err }
func (f *failingRepo) AddCrop(context.Context, *models.FieldCrop) (*models.FieldCrop, error) {
	return nil, f.err
}
func (f *failingRepo) CropsByTense(context.Context, int, models.GrowthTense) ([]models.FieldCrop, error) {
	return nil, f.err
}

// failingManager hands failingRepo to every transaction.
type failingManager struct {
	repo *failingRepo
}

func (f *failingManager) RunMigrations(context.Context) error { return nil }
func (f *failingManager) Users() users.Repository             { return f.repo }
func (f *failingManager) Fields() fields.Repository           { return f.repo }
func (f *failingManager) WithTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return fn(ctx, f.repo)
}
func (f *failingManager) Close() error { return nil }

// racingManager reports no existing users but fails Save with a duplicate.
type racingManager struct {
	*failingManager
}

type racingRepo struct {
	failingRepo
}

func (r *racingRepo) Save(context.Context, *models.User) (*models.User, error) {
	return nil, common.ErrDuplicateEmail
}

func (m *racingManager) WithTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return fn(ctx, &racingRepo{})
}
