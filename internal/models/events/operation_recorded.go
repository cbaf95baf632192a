package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkit/statement-ledger/internal/models"
)

// OperationRecorded is published after every successful ledger write.
// Transfers produce one event per leg.
type OperationRecorded struct {
	EntryID        string               `json:"entry_id"`
	AccountID      string               `json:"account_id"`
	Kind           models.OperationType `json:"kind"`
	Amount         decimal.Decimal      `json:"amount"`
	CounterpartyID string               `json:"counterparty_id,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}
