package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
)

// AccountDirectory is an in-memory account directory.
type AccountDirectory struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewAccountDirectory() *AccountDirectory {
	return &AccountDirectory{
		accounts: make(map[string]models.Account),
	}
}

// Put registers an account. This is the user-management side of the
// directory; the ledger core never calls it.
func (d *AccountDirectory) Put(account models.Account) models.Account {
	d.mu.Lock()
	defer d.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	d.accounts[account.ID] = account
	return account
}

func (d *AccountDirectory) FindByID(ctx context.Context, id string) (*models.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, exists := d.accounts[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrAccountNotFound, id)
	}
	return &account, nil
}

var _ interfaces.AccountDirectory = (*AccountDirectory)(nil)
