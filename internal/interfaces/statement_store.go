package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ledgerkit/statement-ledger/internal/models"
)

// StatementStore is the append-only repository of statement entries. Entries
// are immutable once written; there is no update or delete.
type StatementStore interface {
	// Create assigns the entry an id and timestamp, appends it and returns
	// the stored entry. Every call produces exactly one new row.
	Create(ctx context.Context, entry models.StatementEntry) (models.StatementEntry, error)

	// CreateLinkedPair appends the debit and credit legs of a transfer as a
	// single atomic unit: either both entries are stored or neither is. The
	// legs share an operation id and are returned in (debit, credit) order.
	CreateLinkedPair(ctx context.Context, debit, credit models.StatementEntry) (models.StatementEntry, models.StatementEntry, error)

	// FindByID returns the entry with the given id, or ErrStatementEntryNotFound.
	FindByID(ctx context.Context, id string) (models.StatementEntry, error)

	// FindByAccount returns all entries owned by the account in creation order.
	FindByAccount(ctx context.Context, accountID string) ([]models.StatementEntry, error)

	// SumByAccount returns the algebraic sum of signed amounts for the
	// account's entries. An account with no entries sums to zero, not an error.
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}
