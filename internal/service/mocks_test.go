package service

import (
	"context"

	"lejting/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockArchive) CompleteActiveForItem(ctx context.Context, itemID string) (string, error) {
	args := m.Called(ctx, itemID)
	return args.String(0), args.Error(1)
}

func (m *mockArchive) ListTransactions(ctx context.Context, activeOnly bool) ([]models.Transaction, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockArchive) MaxSequence(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockBackup struct {
	mock.Mock
}

func (m *mockBackup) PerformBackup() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBackup) CleanupOldBackups() int {
	return m.Called().Int(0)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) ObserveRental(total decimal.Decimal) { m.Called(total) }
func (m *mockMetrics) ObserveReturn()                      { m.Called() }
func (m *mockMetrics) ObserveRejection(operation string)   { m.Called(operation) }
func (m *mockMetrics) SetInventory(total, rented int)      { m.Called(total, rented) }
