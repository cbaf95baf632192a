package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
)

// Store is a Postgres statement store over database/sql (lib/pq driver).
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the ledger tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		password   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS statement_entries (
		id              TEXT PRIMARY KEY,
		account_id      TEXT NOT NULL REFERENCES accounts(id),
		kind            TEXT NOT NULL,
		amount          NUMERIC(20,4) NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		counterparty_id TEXT,
		created_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_statement_entries_account
		ON statement_entries (account_id, created_at);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", interfaces.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, entry models.StatementEntry) (models.StatementEntry, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO statement_entries (id, account_id, kind, amount, description, counterparty_id, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.AccountID, string(entry.Kind), entry.Amount,
		entry.Description, nullable(entry.CounterpartyID), entry.CreatedAt)
	if err != nil {
		return models.StatementEntry{}, fmt.Errorf("%w: insert entry: %v", interfaces.ErrStorageUnavailable, err)
	}
	return entry, nil
}

// CreateLinkedPair inserts both transfer legs inside one serializable
// transaction, so a failure between the inserts leaves zero new rows.
func (s *Store) CreateLinkedPair(ctx context.Context, debit, credit models.StatementEntry) (models.StatementEntry, models.StatementEntry, error) {
	opID := uuid.NewString()
	debit.ID = opID + "-debit"
	credit.ID = opID + "-credit"

	now := time.Now().UTC()
	debit.CreatedAt = now
	credit.CreatedAt = now

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return models.StatementEntry{}, models.StatementEntry{}, fmt.Errorf("%w: begin transfer tx: %v", interfaces.ErrStorageUnavailable, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO statement_entries (id, account_id, kind, amount, description, counterparty_id, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	for _, leg := range []models.StatementEntry{debit, credit} {
		if _, err = tx.ExecContext(ctx, query,
			leg.ID, leg.AccountID, string(leg.Kind), leg.Amount,
			leg.Description, nullable(leg.CounterpartyID), leg.CreatedAt); err != nil {
			return models.StatementEntry{}, models.StatementEntry{}, fmt.Errorf("%w: insert transfer leg: %v", interfaces.ErrStorageUnavailable, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.StatementEntry{}, models.StatementEntry{}, fmt.Errorf("%w: commit transfer: %v", interfaces.ErrStorageUnavailable, err)
	}
	return debit, credit, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (models.StatementEntry, error) {
	const query = `SELECT id, account_id, kind, amount, description, counterparty_id, created_at
	FROM statement_entries WHERE id = $1`

	var (
		entry        models.StatementEntry
		kind         string
		counterparty sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.AccountID, &kind, &entry.Amount,
		&entry.Description, &counterparty, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return models.StatementEntry{}, fmt.Errorf("%w: %s", interfaces.ErrStatementEntryNotFound, id)
	}
	if err != nil {
		return models.StatementEntry{}, fmt.Errorf("%w: find entry: %v", interfaces.ErrStorageUnavailable, err)
	}
	entry.Kind = models.OperationType(kind)
	entry.CounterpartyID = counterparty.String
	return entry, nil
}

func (s *Store) FindByAccount(ctx context.Context, accountID string) ([]models.StatementEntry, error) {
	const query = `SELECT id, account_id, kind, amount, description, counterparty_id, created_at
	FROM statement_entries WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", interfaces.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []models.StatementEntry
	for rows.Next() {
		var (
			entry        models.StatementEntry
			kind         string
			counterparty sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &kind, &entry.Amount,
			&entry.Description, &counterparty, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", interfaces.ErrStorageUnavailable, err)
		}
		entry.Kind = models.OperationType(kind)
		entry.CounterpartyID = counterparty.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", interfaces.ErrStorageUnavailable, err)
	}
	return entries, nil
}

func (s *Store) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM statement_entries WHERE account_id = $1`

	var sum decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("%w: sum entries: %v", interfaces.ErrStorageUnavailable, err)
	}
	return sum, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ interfaces.StatementStore = (*Store)(nil)
