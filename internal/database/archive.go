package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lejting/internal/models"
	"lejting/internal/retry"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found in archive")

// DefaultWriteRetry covers a second lejting process holding the write lock.
var DefaultWriteRetry = retry.Policy{MaxRetries: 4, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

// Archive keeps the full transaction history in SQLite, next to the JSON data
// file which only carries items and the counter.
type Archive struct {
	*sql.DB
	path       string
	logger     *zerolog.Logger
	writeRetry retry.Policy
}

func NewArchive(path string, logger *zerolog.Logger) (*Archive, error) {
	// Создаем директорию для БД, если её нет
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Transaction archive opened")
	return &Archive{DB: db, path: path, logger: logger, writeRetry: DefaultWriteRetry}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
            id TEXT PRIMARY KEY,
            sequence INTEGER NOT NULL UNIQUE,
            item_id TEXT NOT NULL,
            renter_name TEXT NOT NULL,
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL,
            total_cost TEXT NOT NULL,
            is_completed BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_item_id ON transactions(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_is_completed ON transactions(is_completed)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SetWriteRetry replaces the backoff used for writes that hit a busy database.
func (a *Archive) SetWriteRetry(p retry.Policy) {
	a.writeRetry = p
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func (a *Archive) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	attempt := 0
	err := a.writeRetry.Do(ctx, isBusy, func() error {
		attempt++
		if attempt > 1 {
			a.logger.Warn().Int("attempt", attempt).Msg("Archive busy, retrying write")
		}
		var err error
		res, err = a.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Path returns the archive file path.
func (a *Archive) Path() string {
	return a.path
}

// SaveTransaction inserts the transaction or refreshes its completion flag.
func (a *Archive) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	query := `INSERT INTO transactions (id, sequence, item_id, renter_name, start_date, end_date, total_cost, is_completed)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET is_completed = excluded.is_completed, updated_at = CURRENT_TIMESTAMP`
	_, err := a.exec(ctx, query,
		tx.ID,
		tx.Sequence,
		tx.ItemID,
		tx.RenterName,
		tx.StartDate.Format(time.RFC3339Nano),
		tx.EndDate.Format(time.RFC3339Nano),
		tx.TotalCost.String(),
		tx.IsCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
	}
	return nil
}

// CompleteTransaction marks one transaction complete.
func (a *Archive) CompleteTransaction(ctx context.Context, id string) error {
	res, err := a.exec(ctx,
		`UPDATE transactions SET is_completed = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to complete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return nil
}

// CompleteActiveForItem completes the oldest incomplete transaction of an
// item and returns its id, or "" when the item has none.
func (a *Archive) CompleteActiveForItem(ctx context.Context, itemID string) (string, error) {
	var id string
	err := a.QueryRowContext(ctx,
		`SELECT id FROM transactions WHERE item_id = ? AND is_completed = 0 ORDER BY sequence LIMIT 1`,
		itemID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find active transaction for %s: %w", itemID, err)
	}

	if err := a.CompleteTransaction(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// GetTransaction loads one transaction by id.
func (a *Archive) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	row := a.QueryRowContext(ctx, selectTransactions+` WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return tx, err
}

// ListTransactions returns the history in sequence order, optionally only the
// incomplete transactions.
func (a *Archive) ListTransactions(ctx context.Context, activeOnly bool) ([]models.Transaction, error) {
	query := selectTransactions
	if activeOnly {
		query += ` WHERE is_completed = 0`
	}
	query += ` ORDER BY sequence`

	rows, err := a.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// MaxSequence returns the highest archived sequence number, 0 when empty.
func (a *Archive) MaxSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := a.QueryRowContext(ctx, `SELECT MAX(sequence) FROM transactions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read max sequence: %w", err)
	}
	return seq.Int64, nil
}

const selectTransactions = `SELECT id, sequence, item_id, renter_name, start_date, end_date, total_cost, is_completed FROM transactions`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		tx         models.Transaction
		start, end string
		cost       string
	)
	if err := row.Scan(&tx.ID, &tx.Sequence, &tx.ItemID, &tx.RenterName, &start, &end, &cost, &tx.IsCompleted); err != nil {
		return models.Transaction{}, err
	}

	var err error
	if tx.StartDate, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: start_date: %w", tx.ID, err)
	}
	if tx.EndDate, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: end_date: %w", tx.ID, err)
	}
	if tx.TotalCost, err = decimal.NewFromString(cost); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: total_cost: %w", tx.ID, err)
	}
	return tx, nil
}
