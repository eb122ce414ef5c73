package domain

import (
	"context"

	"lejting/internal/models"

	"github.com/shopspring/decimal"
)

type TransactionArchive interface {
	SaveTransaction(ctx context.Context, tx models.Transaction) error
	CompleteActiveForItem(ctx context.Context, itemID string) (string, error)
	ListTransactions(ctx context.Context, activeOnly bool) ([]models.Transaction, error)
	MaxSequence(ctx context.Context) (int64, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type MetricsRecorder interface {
	ObserveRental(total decimal.Decimal)
	ObserveReturn()
	ObserveRejection(operation string)
	SetInventory(total, rented int)
}

type Backuper interface {
	PerformBackup() ([]string, error)
	CleanupOldBackups() int
}
