package models

import "time"

// Account is a ledger account record. Accounts are created by the
// user-management service and are immutable here; the ledger only reads them
// to confirm a target exists. PasswordHash belongs to the auth layer and is
// never serialized.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
