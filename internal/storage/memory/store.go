package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/models"
)

// Store is an in-memory statement store. Entries live in an append-only slice
// guarded by one mutex, so a linked pair commits inside a single critical
// section. Intended for tests and local runs.
type Store struct {
	mu      sync.RWMutex
	entries []models.StatementEntry
	byID    map[string]int // entry id -> index into entries
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]int),
	}
}

func (s *Store) Create(ctx context.Context, entry models.StatementEntry) (models.StatementEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(&entry)
	return entry, nil
}

func (s *Store) CreateLinkedPair(ctx context.Context, debit, credit models.StatementEntry) (models.StatementEntry, models.StatementEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Both legs share an operation id; appending them under the same lock
	// hold means no reader ever observes one leg without the other.
	opID := uuid.NewString()
	debit.ID = opID + "-debit"
	credit.ID = opID + "-credit"

	now := time.Now().UTC()
	debit.CreatedAt = now
	credit.CreatedAt = now

	s.byID[debit.ID] = len(s.entries)
	s.entries = append(s.entries, debit)
	s.byID[credit.ID] = len(s.entries)
	s.entries = append(s.entries, credit)

	return debit, credit, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (models.StatementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byID[id]
	if !exists {
		return models.StatementEntry{}, fmt.Errorf("%w: %s", interfaces.ErrStatementEntryNotFound, id)
	}
	return s.entries[idx], nil
}

func (s *Store) FindByAccount(ctx context.Context, accountID string) ([]models.StatementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.StatementEntry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Store) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range s.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// append assigns id and timestamp and stores the entry. Caller holds s.mu.
func (s *Store) append(entry *models.StatementEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.byID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, *entry)
}

var _ interfaces.StatementStore = (*Store)(nil)
