package interfaces

import (
	"context"

	"github.com/ledgerkit/statement-ledger/internal/models"
)

// AccountDirectory resolves account ids to account records. It is the single
// source of truth for account existence; the ledger never creates, mutates or
// deletes accounts through it.
type AccountDirectory interface {
	// FindByID returns the account, or ErrAccountNotFound.
	FindByID(ctx context.Context, id string) (*models.Account, error)
}
