package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
	"github.com/ledgerkit/statement-ledger/internal/storage/memory"
)

type fixture struct {
	ledger    *Ledger
	directory *memory.AccountDirectory
	store     *memory.Store
	events    *capturingPublisher
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturingPublisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newFixture(t *testing.T, accountIDs ...string) *fixture {
	t.Helper()
	directory := memory.NewAccountDirectory()
	for _, id := range accountIDs {
		directory.Put(models.Account{ID: id, Name: id})
	}
	store := memory.NewStore()
	events := &capturingPublisher{}
	return &fixture{
		ledger:    New(directory, store, events, nil),
		directory: directory,
		store:     store,
		events:    events,
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	balance, err := f.ledger.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return balance
}

func TestDeposit(t *testing.T) {
	f := newFixture(t, "alice")

	entry, err := f.ledger.Deposit(context.Background(), "alice", dec(123), "initial deposit")
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "alice", entry.AccountID)
	assert.Equal(t, models.OperationDeposit, entry.Kind)
	assert.True(t, entry.Amount.Equal(dec(123)))
	assert.Empty(t, entry.CounterpartyID)
	assert.False(t, entry.CreatedAt.IsZero())

	assert.True(t, f.balance(t, "alice").Equal(dec(123)))
}

func TestDepositUnknownAccount(t *testing.T) {
	f := newFixture(t, "alice")

	_, err := f.ledger.Deposit(context.Background(), "nobody", dec(10), "deposit")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)

	entries, err := f.store.FindByAccount(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "alice", dec(123), "initial deposit")
	require.NoError(t, err)

	entry, err := f.ledger.Withdraw(ctx, "alice", dec(23), "first withdraw")
	require.NoError(t, err)

	// Withdrawals are stored negative at the magnitude the caller requested.
	assert.Equal(t, models.OperationWithdraw, entry.Kind)
	assert.True(t, entry.Amount.Equal(dec(-23)))
	assert.True(t, f.balance(t, "alice").Equal(dec(100)))

	// Overdraw attempt leaves the balance untouched.
	_, err = f.ledger.Withdraw(ctx, "alice", dec(150), "too much")
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFunds)
	assert.True(t, f.balance(t, "alice").Equal(dec(100)))
}

func TestWithdrawUnknownAccount(t *testing.T) {
	f := newFixture(t, "alice")

	_, err := f.ledger.Withdraw(context.Background(), "nobody", dec(10), "withdraw")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
}

func TestInvalidAmounts(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-5)} {
		_, err := f.ledger.Deposit(ctx, "alice", amount, "deposit")
		assert.ErrorIs(t, err, interfaces.ErrInvalidAmount)

		_, err = f.ledger.Withdraw(ctx, "alice", amount, "withdraw")
		assert.ErrorIs(t, err, interfaces.ErrInvalidAmount)

		_, err = f.ledger.Transfer(ctx, "alice", "bob", amount, "transfer")
		assert.ErrorIs(t, err, interfaces.ErrInvalidAmount)
	}

	entries, err := f.store.FindByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateStatementDispatch(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	entry, err := f.ledger.CreateStatement(ctx, "alice", models.OperationDeposit, dec(50), "deposit")
	require.NoError(t, err)
	assert.Equal(t, models.OperationDeposit, entry.Kind)

	entry, err = f.ledger.CreateStatement(ctx, "alice", models.OperationWithdraw, dec(20), "withdraw")
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(dec(-20)))

	_, err = f.ledger.CreateStatement(ctx, "alice", models.OperationTransfer, dec(10), "transfer")
	assert.ErrorIs(t, err, interfaces.ErrInvalidOperation)

	_, err = f.ledger.CreateStatement(ctx, "alice", models.OperationType("loan"), dec(10), "loan")
	assert.ErrorIs(t, err, interfaces.ErrInvalidOperation)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t, "sender", "receiver")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "sender", dec(200), "initial deposit")
	require.NoError(t, err)

	entry, err := f.ledger.Transfer(ctx, "sender", "receiver", dec(50), "rent")
	require.NoError(t, err)

	// The receiver's leg is the created resource.
	assert.Equal(t, "receiver", entry.AccountID)
	assert.Equal(t, models.OperationTransfer, entry.Kind)
	assert.True(t, entry.Amount.Equal(dec(50)))
	assert.Equal(t, "sender", entry.CounterpartyID)

	assert.True(t, f.balance(t, "sender").Equal(dec(150)))
	assert.True(t, f.balance(t, "receiver").Equal(dec(50)))

	// The sender's leg is linked back through the shared operation id.
	senderEntries, err := f.store.FindByAccount(ctx, "sender")
	require.NoError(t, err)
	require.Len(t, senderEntries, 2)
	debit := senderEntries[1]
	assert.True(t, debit.Amount.Equal(dec(-50)))
	assert.Equal(t, "receiver", debit.CounterpartyID)
}

func TestTransferConservesTotalBalance(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "a", dec(300), "seed")
	require.NoError(t, err)
	_, err = f.ledger.Deposit(ctx, "b", dec(100), "seed")
	require.NoError(t, err)

	_, err = f.ledger.Transfer(ctx, "a", "b", dec(120), "t1")
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, "b", "c", dec(60), "t2")
	require.NoError(t, err)

	total := decimal.Zero
	for _, id := range []string{"a", "b", "c"} {
		total = total.Add(f.balance(t, id))
	}
	assert.True(t, total.Equal(dec(400)), "transfers must not create or destroy money, got %s", total)
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t, "sender", "receiver")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "sender", dec(100), "seed")
	require.NoError(t, err)

	_, err = f.ledger.Transfer(ctx, "sender", "receiver", dec(300), "too much")
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFunds)

	// Neither leg may exist after a rejected transfer.
	assert.True(t, f.balance(t, "sender").Equal(dec(100)))
	assert.True(t, f.balance(t, "receiver").Equal(dec(0)))
	receiverEntries, err := f.store.FindByAccount(ctx, "receiver")
	require.NoError(t, err)
	assert.Empty(t, receiverEntries)
}

func TestTransferUnknownAccounts(t *testing.T) {
	f := newFixture(t, "sender")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "sender", dec(100), "seed")
	require.NoError(t, err)

	_, err = f.ledger.Transfer(ctx, "sender", "nobody", dec(10), "to ghost")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)

	// The sender is re-validated too, not trusted from the auth layer.
	_, err = f.ledger.Transfer(ctx, "ghost", "sender", dec(10), "from ghost")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)

	assert.True(t, f.balance(t, "sender").Equal(dec(100)))
}

func TestSelfTransfer(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "alice", dec(100), "seed")
	require.NoError(t, err)

	_, err = f.ledger.Transfer(ctx, "alice", "alice", dec(40), "to self")
	require.NoError(t, err)

	assert.True(t, f.balance(t, "alice").Equal(dec(100)))
}

func TestGetBalanceUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.GetBalance(context.Background(), "nobody")
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
}

func TestGetStatementEntry(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	entry, err := f.ledger.Deposit(ctx, "alice", dec(10), "deposit")
	require.NoError(t, err)

	got, err := f.ledger.GetStatementEntry(ctx, "alice", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	// Another account's entry must be indistinguishable from a missing one.
	_, err = f.ledger.GetStatementEntry(ctx, "bob", entry.ID)
	assert.ErrorIs(t, err, interfaces.ErrStatementEntryNotFound)

	_, err = f.ledger.GetStatementEntry(ctx, "alice", "no-such-entry")
	assert.ErrorIs(t, err, interfaces.ErrStatementEntryNotFound)

	_, err = f.ledger.GetStatementEntry(ctx, "nobody", entry.ID)
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
}

func TestGetStatement(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "alice", dec(10), "first")
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, "alice", dec(4), "second")
	require.NoError(t, err)

	entries, err := f.ledger.GetStatement(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Description)
	assert.Equal(t, "second", entries[1].Description)
}

func TestPublishesOperationEvents(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "alice", dec(100), "seed")
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, "alice", "bob", dec(30), "split")
	require.NoError(t, err)

	// One event for the deposit, one per transfer leg.
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	assert.Len(t, f.events.events, 3)
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	f := newFixture(t, "alice")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "alice", dec(100), "seed")
	require.NoError(t, err)

	// 20 concurrent withdrawals of 10 against a balance of 100: exactly 10
	// may succeed, and the balance must never go negative.
	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Withdraw(ctx, "alice", dec(10), "concurrent")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, interfaces.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.True(t, f.balance(t, "alice").Equal(dec(0)))
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	_, err := f.ledger.Deposit(ctx, "a", dec(500), "seed")
	require.NoError(t, err)
	_, err = f.ledger.Deposit(ctx, "b", dec(500), "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.ledger.Transfer(ctx, "a", "b", dec(7), "ping")
		}()
		go func() {
			defer wg.Done()
			f.ledger.Transfer(ctx, "b", "a", dec(5), "pong")
		}()
	}
	wg.Wait()

	total := f.balance(t, "a").Add(f.balance(t, "b"))
	assert.True(t, total.Equal(dec(1000)), "total balance drifted to %s", total)
	assert.True(t, f.balance(t, "a").GreaterThanOrEqual(decimal.Zero))
	assert.True(t, f.balance(t, "b").GreaterThanOrEqual(decimal.Zero))
}
