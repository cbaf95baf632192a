package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
)

// AccountDirectory resolves accounts from the accounts table. The table is
// written by the user-management service; the ledger only reads it.
type AccountDirectory struct {
	db *sql.DB
}

func NewAccountDirectory(db *sql.DB) *AccountDirectory {
	return &AccountDirectory{db: db}
}

func (d *AccountDirectory) FindByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT id, name, password, created_at FROM accounts WHERE id = $1`

	var account models.Account
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.Name, &account.PasswordHash, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find account: %v", interfaces.ErrStorageUnavailable, err)
	}
	return &account, nil
}

var _ interfaces.AccountDirectory = (*AccountDirectory)(nil)
