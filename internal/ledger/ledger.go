package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
	"github.com/ledgerkit/statement-ledger/internal/models/events"
)

// TopicOperationRecorded is the event topic for successful ledger writes.
const TopicOperationRecorded = "operation_recorded"

// Ledger implements the statement operations over an account directory and a
// statement store. Balances are never stored: every query folds the account's
// entries, so the log is the single source of truth.
//
// Debits are serialized per account with an in-process mutex map, so two
// concurrent withdrawals cannot both pass the funds check against a stale
// balance. Transfer legs additionally rely on the store's CreateLinkedPair
// for atomicity across both accounts.
type Ledger struct {
	accounts interfaces.AccountDirectory
	store    interfaces.StatementStore
	events   interfaces.EventPublisher // optional, may be nil
	logger   *zap.Logger

	muMap map[string]*sync.Mutex // per-account lock
	mapMu sync.Mutex             // protects muMap itself
}

func New(accounts interfaces.AccountDirectory, store interfaces.StatementStore, publisher interfaces.EventPublisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		accounts: accounts,
		store:    store,
		events:   publisher,
		logger:   logger,
		muMap:    make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// CreateStatement records a single-account operation. Only deposit and
// withdraw are valid here; transfers go through Transfer.
func (l *Ledger) CreateStatement(ctx context.Context, accountID string, kind models.OperationType, amount decimal.Decimal, description string) (models.StatementEntry, error) {
	switch kind {
	case models.OperationDeposit:
		return l.Deposit(ctx, accountID, amount, description)
	case models.OperationWithdraw:
		return l.Withdraw(ctx, accountID, amount, description)
	case models.OperationTransfer:
		return models.StatementEntry{}, fmt.Errorf("%w: transfer requires a counterparty", interfaces.ErrInvalidOperation)
	default:
		return models.StatementEntry{}, fmt.Errorf("%w: %q", interfaces.ErrInvalidOperation, kind)
	}
}

// Deposit credits the account. Deposits always succeed once the account and
// amount are valid; no funds check and no lock is needed for a pure credit.
func (l *Ledger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (models.StatementEntry, error) {
	if err := validAmount(amount); err != nil {
		return models.StatementEntry{}, err
	}
	if _, err := l.accounts.FindByID(ctx, accountID); err != nil {
		return models.StatementEntry{}, err
	}

	entry, err := l.store.Create(ctx, models.StatementEntry{
		AccountID:   accountID,
		Kind:        models.OperationDeposit,
		Amount:      models.SignedAmount(models.OperationDeposit, models.RoleOwner, amount),
		Description: description,
	})
	if err != nil {
		return models.StatementEntry{}, err
	}

	l.publishRecorded(entry)
	return entry, nil
}

// Withdraw debits the account after checking the current balance covers the
// requested amount. The check and the write happen under the account's lock
// so concurrent debits cannot overdraw.
func (l *Ledger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (models.StatementEntry, error) {
	if err := validAmount(amount); err != nil {
		return models.StatementEntry{}, err
	}
	if _, err := l.accounts.FindByID(ctx, accountID); err != nil {
		return models.StatementEntry{}, err
	}

	mu := l.getAccountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := l.store.SumByAccount(ctx, accountID)
	if err != nil {
		return models.StatementEntry{}, err
	}
	if balance.LessThan(amount) {
		return models.StatementEntry{}, fmt.Errorf("%w: balance %s, requested %s", interfaces.ErrInsufficientFunds, balance, amount)
	}

	entry, err := l.store.Create(ctx, models.StatementEntry{
		AccountID:   accountID,
		Kind:        models.OperationWithdraw,
		Amount:      models.SignedAmount(models.OperationWithdraw, models.RoleOwner, amount),
		Description: description,
	})
	if err != nil {
		return models.StatementEntry{}, err
	}

	l.publishRecorded(entry)
	return entry, nil
}

// Transfer moves amount from sender to receiver as two linked entries written
// atomically. Both accounts are re-validated: auth identity and ledger
// identity are separate concerns, so the sender is not trusted to still
// exist. Returns the receiver's entry, the created resource from the caller's
// point of view.
func (l *Ledger) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (models.StatementEntry, error) {
	if err := validAmount(amount); err != nil {
		return models.StatementEntry{}, err
	}
	if _, err := l.accounts.FindByID(ctx, receiverID); err != nil {
		return models.StatementEntry{}, err
	}
	if _, err := l.accounts.FindByID(ctx, senderID); err != nil {
		return models.StatementEntry{}, err
	}

	senderMu := l.getAccountLock(senderID)
	receiverMu := l.getAccountLock(receiverID)

	// Lock both accounts in id order to avoid deadlocks. A self-transfer
	// holds a single lock.
	switch {
	case senderID == receiverID:
		senderMu.Lock()
		defer senderMu.Unlock()
	case senderID < receiverID:
		senderMu.Lock()
		receiverMu.Lock()
		defer receiverMu.Unlock()
		defer senderMu.Unlock()
	default:
		receiverMu.Lock()
		senderMu.Lock()
		defer senderMu.Unlock()
		defer receiverMu.Unlock()
	}

	balance, err := l.store.SumByAccount(ctx, senderID)
	if err != nil {
		return models.StatementEntry{}, err
	}
	if balance.LessThan(amount) {
		return models.StatementEntry{}, fmt.Errorf("%w: balance %s, requested %s", interfaces.ErrInsufficientFunds, balance, amount)
	}

	debit := models.StatementEntry{
		AccountID:      senderID,
		Kind:           models.OperationTransfer,
		Amount:         models.SignedAmount(models.OperationTransfer, models.RoleSender, amount),
		Description:    description,
		CounterpartyID: receiverID,
	}
	credit := models.StatementEntry{
		AccountID:      receiverID,
		Kind:           models.OperationTransfer,
		Amount:         models.SignedAmount(models.OperationTransfer, models.RoleReceiver, amount),
		Description:    description,
		CounterpartyID: senderID,
	}

	debit, credit, err = l.store.CreateLinkedPair(ctx, debit, credit)
	if err != nil {
		return models.StatementEntry{}, err
	}

	l.logger.Info("transfer recorded",
		zap.String("sender", senderID),
		zap.String("receiver", receiverID),
		zap.String("amount", amount.String()))

	l.publishRecorded(debit)
	l.publishRecorded(credit)
	return credit, nil
}

// GetBalance folds the account's entries into its current balance.
func (l *Ledger) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if _, err := l.accounts.FindByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return l.store.SumByAccount(ctx, accountID)
}

// GetStatementEntry returns a single entry owned by the account. An entry
// that exists but belongs to another account is reported as not found, so
// callers cannot probe for other accounts' entries.
func (l *Ledger) GetStatementEntry(ctx context.Context, accountID, entryID string) (models.StatementEntry, error) {
	if _, err := l.accounts.FindByID(ctx, accountID); err != nil {
		return models.StatementEntry{}, err
	}

	entry, err := l.store.FindByID(ctx, entryID)
	if err != nil {
		return models.StatementEntry{}, err
	}
	if entry.AccountID != accountID {
		return models.StatementEntry{}, fmt.Errorf("%w: %s", interfaces.ErrStatementEntryNotFound, entryID)
	}
	return entry, nil
}

// GetStatement returns the account's full statement in creation order.
func (l *Ledger) GetStatement(ctx context.Context, accountID string) ([]models.StatementEntry, error) {
	if _, err := l.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	return l.store.FindByAccount(ctx, accountID)
}

func (l *Ledger) publishRecorded(entry models.StatementEntry) {
	if l.events == nil {
		return
	}
	err := l.events.Publish(TopicOperationRecorded, events.OperationRecorded{
		EntryID:        entry.ID,
		AccountID:      entry.AccountID,
		Kind:           entry.Kind,
		Amount:         entry.Amount,
		CounterpartyID: entry.CounterpartyID,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		// Events are best-effort; the entry is already committed.
		l.logger.Warn("publish operation event", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

func validAmount(amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: got %s", interfaces.ErrInvalidAmount, amount)
	}
	return nil
}
