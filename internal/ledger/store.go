// Package ledger holds the in-memory rental ledger: the item catalog, the
// transaction history and the transaction sequence counter.
//
// A Store is owned by a single caller and is not safe for concurrent use.
// Every operation either fully succeeds or returns an error without touching
// the store.
package ledger

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"lejting/internal/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// MaxRentalDays caps a rental at a century; start + days*24h must stay
// within time.Duration.
const MaxRentalDays = 100 * 365

// Store is the in-memory authority for items and transactions.
//
// An item that is not available mirrors its single incomplete transaction:
// RentItem refuses rented items, so at most one incomplete transaction exists
// per item, and ReturnItem completes it while clearing the item.
type Store struct {
	items     map[string]*models.Item
	itemOrder []string

	transactions map[string]*models.Transaction
	txOrder      []string

	counter int64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of rental start times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store whose first transaction will be T0001.
func New(opts ...Option) *Store {
	s := &Store{
		items:        make(map[string]*models.Item),
		transactions: make(map[string]*models.Transaction),
		counter:      models.FirstSequence,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore builds a store from previously saved items and counter. The
// transaction history starts empty.
func Restore(items []models.Item, counter int64, opts ...Option) (*Store, error) {
	if counter < models.FirstSequence {
		return nil, fmt.Errorf("transaction counter %d: must be >= %d", counter, models.FirstSequence)
	}
	s := New(opts...)
	s.counter = counter
	for _, item := range items {
		if err := validateItem(item.ID, item.Name, item.DailyRate); err != nil {
			return nil, err
		}
		if _, ok := s.items[item.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, item.ID)
		}
		if !item.Consistent() {
			return nil, fmt.Errorf("%w: %s: availability does not match rental fields", ErrInvalidItem, item.ID)
		}
		cp := item.Clone()
		s.items[item.ID] = &cp
		s.itemOrder = append(s.itemOrder, item.ID)
	}
	return s, nil
}

func validateItem(id, name string, rate decimal.Decimal) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s: empty name", ErrInvalidItem, id)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: %s: negative daily rate %s", ErrInvalidItem, id, rate)
	}
	return nil
}

// AddItem inserts a new available item.
func (s *Store) AddItem(id, name string, dailyRate decimal.Decimal, description string) error {
	if _, ok := s.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	if err := validateItem(id, name, dailyRate); err != nil {
		return err
	}

	s.items[id] = &models.Item{
		ID:          id,
		Name:        name,
		DailyRate:   dailyRate,
		Description: description,
		IsAvailable: true,
	}
	s.itemOrder = append(s.itemOrder, id)
	return nil
}

// RemoveItem deletes an available item. Transactions that reference it are
// kept.
func (s *Store) RemoveItem(id string) error {
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !item.IsAvailable {
		return fmt.Errorf("%w: %s", ErrItemRented, id)
	}

	delete(s.items, id)
	s.itemOrder = slices.DeleteFunc(s.itemOrder, func(v string) bool { return v == id })
	return nil
}

// GetItem returns a copy of the item.
func (s *Store) GetItem(id string) (models.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return models.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item.Clone(), nil
}

// ListItems yields copies of the items in insertion order. With
// availableOnly set, rented items are skipped. The sequence can be ranged
// over any number of times.
func (s *Store) ListItems(availableOnly bool) iter.Seq[models.Item] {
	return func(yield func(models.Item) bool) {
		for _, id := range s.itemOrder {
			item := s.items[id]
			if availableOnly && !item.IsAvailable {
				continue
			}
			if !yield(item.Clone()) {
				return
			}
		}
	}
}

// RentItem rents an available item for the given number of days starting
// now and returns the new transaction id.
func (s *Store) RentItem(id, renterName string, days int) (string, error) {
	item, ok := s.items[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !item.IsAvailable {
		return "", fmt.Errorf("%w: %s", ErrItemRented, id)
	}
	if days <= 0 || days > MaxRentalDays {
		return "", fmt.Errorf("%w: got %d, max %d", ErrInvalidPeriod, days, MaxRentalDays)
	}

	start := s.now()
	end := start.Add(time.Duration(days) * day)
	total := item.DailyRate.Mul(decimal.NewFromInt(int64(days)))

	seq := s.counter
	txID := FormatTransactionID(seq)
	s.counter++

	s.transactions[txID] = &models.Transaction{
		ID:         txID,
		Sequence:   seq,
		ItemID:     id,
		RenterName: renterName,
		StartDate:  start,
		EndDate:    end,
		TotalCost:  total,
	}
	s.txOrder = append(s.txOrder, txID)
	item.MarkRented(renterName, start, end)

	return txID, nil
}

// ReturnItem makes a rented item available again and completes its active
// transaction. The returned id is empty when the item had no active
// transaction, which can happen after a reload since transactions are not
// persisted; the item is returned regardless.
func (s *Store) ReturnItem(id string) (string, error) {
	item, ok := s.items[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.IsAvailable {
		return "", fmt.Errorf("%w: %s", ErrNotRented, id)
	}

	var txID string
	if tx := s.activeTransaction(id); tx != nil {
		tx.IsCompleted = true
		txID = tx.ID
	}
	item.MarkAvailable()

	return txID, nil
}

// ListTransactions yields copies of the transactions in creation order. With
// activeOnly set, completed transactions are skipped.
func (s *Store) ListTransactions(activeOnly bool) iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for _, id := range s.txOrder {
			tx := s.transactions[id]
			if activeOnly && tx.IsCompleted {
				continue
			}
			if !yield(*tx) {
				return
			}
		}
	}
}

// Transaction returns a copy of the transaction with the given id.
func (s *Store) Transaction(id string) (models.Transaction, error) {
	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return *tx, nil
}

// ActiveTransaction returns the incomplete transaction for an item, if any.
func (s *Store) ActiveTransaction(itemID string) (models.Transaction, bool) {
	tx := s.activeTransaction(itemID)
	if tx == nil {
		return models.Transaction{}, false
	}
	return *tx, true
}

func (s *Store) activeTransaction(itemID string) *models.Transaction {
	for _, id := range s.txOrder {
		tx := s.transactions[id]
		if tx.ItemID == itemID && !tx.IsCompleted {
			return tx
		}
	}
	return nil
}

// Counter returns the sequence number the next transaction will use.
func (s *Store) Counter() int64 {
	return s.counter
}

// AdvanceCounter moves the counter forward to next if it is behind. It never
// moves backwards, so ids are not reused when another source has seen a
// higher sequence.
func (s *Store) AdvanceCounter(next int64) bool {
	if next <= s.counter {
		return false
	}
	s.counter = next
	return true
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.itemOrder)
}

// FormatTransactionID renders a sequence number as a transaction id.
func FormatTransactionID(seq int64) string {
	return fmt.Sprintf("%s%0*d", models.TransactionIDPrefix, models.TransactionIDWidth, seq)
}
