package interfaces

import "errors"

// Error kinds shared by the ledger core and its storage implementations.
// Callers match these with errors.Is; implementations wrap them with %w and
// context about the failing id.
var (
	// ErrAccountNotFound: the target account (or transfer receiver/sender)
	// does not exist. Raised before any write.
	ErrAccountNotFound = errors.New("account not found")

	// ErrStatementEntryNotFound: the entry id does not exist, or it belongs
	// to a different account than the one given. The two cases are
	// deliberately indistinguishable to the caller.
	ErrStatementEntryNotFound = errors.New("statement entry not found")

	// ErrInsufficientFunds: the requested debit exceeds the current balance.
	// Raised before any write; no partial entries are ever created.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount: the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidOperation: the operation kind is unknown, or not valid for
	// the entry point it was sent to.
	ErrInvalidOperation = errors.New("invalid operation kind")

	// ErrStorageUnavailable wraps storage-layer failures (connectivity,
	// transaction conflict). Distinct from the validation kinds above so a
	// caller can tell "nothing happened" from "write attempted but
	// undetermined". The ledger never retries these itself.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
