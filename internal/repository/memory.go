package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/google/uuid"
)

// MemoryAccountRepository keeps accounts in process memory keyed by username.
// It enforces username uniqueness the same way the database constraint does
// and is used when no database is configured, and in tests.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// NewMemoryAccountRepository returns an empty in-memory repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]models.Account)}
}

// UsernameExists reports whether username is taken.
func (r *MemoryAccountRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[username]
	return ok, nil
}

// InsertAccount stores a copy of acc with a fresh ID.
func (r *MemoryAccountRepository) InsertAccount(_ context.Context, acc *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.Username]; ok {
		return nil, fmt.Errorf("insert %q: %w", acc.Username, common.ErrDuplicateUsername)
	}

	created := *acc
	created.ID = uuid.NewString()
	r.accounts[created.Username] = created
	return &created, nil
}

// FindByUsername returns the account or common.ErrNotFound.
func (r *MemoryAccountRepository) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &acc, nil
}

// ListAccounts returns all accounts in no particular order.
func (r *MemoryAccountRepository) ListAccounts(_ context.Context) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	return out, nil
}
