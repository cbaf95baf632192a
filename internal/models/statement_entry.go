package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the closed set of operations that may appear on a statement.
type OperationType string

const (
	OperationDeposit  OperationType = "deposit"
	OperationWithdraw OperationType = "withdraw"
	OperationTransfer OperationType = "transfer"
)

// Valid reports whether t is one of the known operation kinds.
func (t OperationType) Valid() bool {
	switch t {
	case OperationDeposit, OperationWithdraw, OperationTransfer:
		return true
	}
	return false
}

// EntryRole identifies which side of an operation an entry records.
type EntryRole string

const (
	// RoleOwner is the single account of a deposit or withdrawal.
	RoleOwner EntryRole = "owner"
	// RoleSender is the debited leg of a transfer.
	RoleSender EntryRole = "sender"
	// RoleReceiver is the credited leg of a transfer.
	RoleReceiver EntryRole = "receiver"
)

// StatementEntry is a single immutable ledger record for an account.
// Amount is signed: positive for credits, negative for debits. Entries are
// never updated or deleted; corrections are new offsetting entries.
type StatementEntry struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Kind           OperationType   `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	CounterpartyID string          `json:"counterparty_id,omitempty"` // set only for transfer entries
	CreatedAt      time.Time       `json:"created_at"`
}

// SignedAmount derives the stored sign of an entry's amount from the
// operation kind and the role the owning account plays in it. Callers always
// pass the positive magnitude they were asked for; this is the single place
// where the sign convention lives.
func SignedAmount(kind OperationType, role EntryRole, amount decimal.Decimal) decimal.Decimal {
	switch {
	case kind == OperationWithdraw:
		return amount.Neg()
	case kind == OperationTransfer && role == RoleSender:
		return amount.Neg()
	default:
		return amount
	}
}
