package service

import (
	"context"
	"errors"
	"iter"
	"slices"

	"lejting/internal/domain"
	"lejting/internal/events"
	"lejting/internal/ledger"
	"lejting/internal/models"
	"lejting/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Deps are the optional collaborators of a RentalService. Nil fields are
// skipped.
type Deps struct {
	Archive domain.TransactionArchive
	Events  domain.EventPublisher
	Metrics domain.MetricsRecorder
	Backup  domain.Backuper
}

// RentalService runs ledger operations for one caller and fans the results
// out to the archive, the event bus and metrics. The store stays the
// authority: a failing side effect is logged, never rolled back.
type RentalService struct {
	store    *ledger.Store
	archive  domain.TransactionArchive
	eventBus domain.EventPublisher
	metrics  domain.MetricsRecorder
	backup   domain.Backuper
	logger   *zerolog.Logger
}

func NewRentalService(store *ledger.Store, deps Deps, logger *zerolog.Logger) *RentalService {
	return &RentalService{
		store:    store,
		archive:  deps.Archive,
		eventBus: deps.Events,
		metrics:  deps.Metrics,
		backup:   deps.Backup,
		logger:   logger,
	}
}

// Open loads the data file at path. A missing file starts an empty ledger.
// When an archive is configured the counter is moved past the highest
// archived sequence so ids are never handed out twice.
func Open(ctx context.Context, path string, deps Deps, logger *zerolog.Logger, opts ...ledger.Option) (*RentalService, error) {
	store, err := storage.Load(path, opts...)
	switch {
	case errors.Is(err, storage.ErrFileAbsent):
		logger.Info().Str("path", path).Msg("Data file not found, starting with an empty ledger")
		store = ledger.New(opts...)
	case err != nil:
		logger.Error().Err(err).Str("path", path).Msg("Failed to load data file")
		return nil, err
	}

	s := NewRentalService(store, deps, logger)
	if err := s.syncCounter(ctx); err != nil {
		return nil, err
	}
	s.updateInventory()
	return s, nil
}

func (s *RentalService) syncCounter(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	maxSeq, err := s.archive.MaxSequence(ctx)
	if err != nil {
		return err
	}
	if s.store.AdvanceCounter(maxSeq + 1) {
		s.logger.Warn().
			Int64("archived_sequence", maxSeq).
			Int64("counter", s.store.Counter()).
			Msg("Transaction counter behind archive, advanced")
	}
	return nil
}

// Store exposes the underlying ledger.
func (s *RentalService) Store() *ledger.Store {
	return s.store
}

func (s *RentalService) AddItem(ctx context.Context, id, name string, dailyRate decimal.Decimal, description string) error {
	if err := s.store.AddItem(id, name, dailyRate, description); err != nil {
		s.reject("add", id, err)
		return err
	}

	s.logger.Info().Str("item_id", id).Str("name", name).Str("daily_rate", dailyRate.String()).Msg("Item added")
	s.publishEvent(events.EventItemAdded, events.RentalEventPayload{ItemID: id, ItemName: name})
	s.updateInventory()
	return nil
}

func (s *RentalService) RemoveItem(ctx context.Context, id string) error {
	item, _ := s.store.GetItem(id)
	if err := s.store.RemoveItem(id); err != nil {
		s.reject("remove", id, err)
		return err
	}

	s.logger.Info().Str("item_id", id).Msg("Item removed")
	s.publishEvent(events.EventItemRemoved, events.RentalEventPayload{ItemID: id, ItemName: item.Name})
	s.updateInventory()
	return nil
}

// RentItem rents the item and returns the created transaction.
func (s *RentalService) RentItem(ctx context.Context, id, renterName string, days int) (models.Transaction, error) {
	txID, err := s.store.RentItem(id, renterName, days)
	if err != nil {
		s.reject("rent", id, err)
		return models.Transaction{}, err
	}

	tx, err := s.store.Transaction(txID)
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info().
		Str("item_id", id).
		Str("transaction_id", tx.ID).
		Str("renter", renterName).
		Int("days", days).
		Str("total_cost", tx.TotalCost.String()).
		Msg("Item rented")

	s.archiveTransaction(ctx, tx)
	if s.metrics != nil {
		s.metrics.ObserveRental(tx.TotalCost)
	}

	item, _ := s.store.GetItem(id)
	start, end := tx.StartDate, tx.EndDate
	s.publishEvent(events.EventItemRented, events.RentalEventPayload{
		ItemID:        id,
		ItemName:      item.Name,
		TransactionID: tx.ID,
		RenterName:    renterName,
		Days:          days,
		TotalCost:     tx.TotalCost,
		StartDate:     &start,
		EndDate:       &end,
	})
	s.updateInventory()
	return tx, nil
}

// ReturnItem returns a rented item. The returned id is the completed
// transaction, or "" when neither the ledger nor the archive had one.
func (s *RentalService) ReturnItem(ctx context.Context, id string) (string, error) {
	before, _ := s.store.GetItem(id)

	txID, err := s.store.ReturnItem(id)
	if err != nil {
		s.reject("return", id, err)
		return "", err
	}

	switch {
	case txID != "":
		if tx, err := s.store.Transaction(txID); err == nil {
			s.archiveTransaction(ctx, tx)
		}
	case s.archive != nil:
		archived, err := s.archive.CompleteActiveForItem(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", id).Msg("archive complete error")
		}
		txID = archived
	}

	if txID == "" {
		s.logger.Warn().Str("item_id", id).Msg("Item returned without an active transaction")
	}
	s.logger.Info().Str("item_id", id).Str("transaction_id", txID).Str("renter", before.Renter()).Msg("Item returned")

	if s.metrics != nil {
		s.metrics.ObserveReturn()
	}
	s.publishEvent(events.EventItemReturned, events.RentalEventPayload{
		ItemID:        id,
		ItemName:      before.Name,
		TransactionID: txID,
		RenterName:    before.Renter(),
	})
	s.updateInventory()
	return txID, nil
}

func (s *RentalService) GetItem(id string) (models.Item, error) {
	return s.store.GetItem(id)
}

func (s *RentalService) Items(availableOnly bool) iter.Seq[models.Item] {
	return s.store.ListItems(availableOnly)
}

// Transactions lists the history. With an archive it covers earlier runs;
// otherwise only transactions made since the ledger was loaded.
func (s *RentalService) Transactions(ctx context.Context, activeOnly bool) ([]models.Transaction, error) {
	if s.archive != nil {
		return s.archive.ListTransactions(ctx, activeOnly)
	}
	return slices.Collect(s.store.ListTransactions(activeOnly)), nil
}

// Seed adds the catalog items that are not in the ledger yet and returns how
// many were added.
func (s *RentalService) Seed(ctx context.Context, items []models.Item) (int, error) {
	var added int
	for _, item := range items {
		if _, err := s.store.GetItem(item.ID); err == nil {
			continue
		}
		if err := s.AddItem(ctx, item.ID, item.Name, item.DailyRate, item.Description); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Save writes the ledger to path, taking a backup of the previous files first
// when a backup service is configured.
func (s *RentalService) Save(path string) error {
	if s.backup != nil {
		if _, err := s.backup.PerformBackup(); err != nil {
			s.logger.Warn().Err(err).Msg("Backup before save failed")
		}
		s.backup.CleanupOldBackups()
	}

	if err := storage.Save(s.store, path); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to save data file")
		return err
	}
	s.logger.Info().Str("path", path).Int("items", s.store.Len()).Int64("counter", s.store.Counter()).Msg("Data saved")
	return nil
}

func (s *RentalService) reject(operation, itemID string, err error) {
	s.logger.Warn().Err(err).Str("operation", operation).Str("item_id", itemID).Msg("Operation rejected")
	if s.metrics != nil {
		s.metrics.ObserveRejection(operation)
	}
}

func (s *RentalService) archiveTransaction(ctx context.Context, tx models.Transaction) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveTransaction(ctx, tx); err != nil {
		s.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("archive save error")
	}
}

func (s *RentalService) publishEvent(eventType string, payload events.RentalEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("item_id", payload.ItemID).Msg("publish event error")
	}
}

func (s *RentalService) updateInventory() {
	if s.metrics == nil {
		return
	}
	var total, rented int
	for item := range s.store.ListItems(false) {
		total++
		if !item.IsAvailable {
			rented++
		}
	}
	s.metrics.SetInventory(total, rented)
}
