package main

import (
	"context"
	"io"
	"os"

	"lejting/internal/config"
	"lejting/internal/database"
	"lejting/internal/events"
	"lejting/internal/logging"
	"lejting/internal/metrics"
	"lejting/internal/service"

	"github.com/rs/zerolog"
)

const defaultConfigPath = "configs/config.yaml"

// app holds everything a single command run needs.
type app struct {
	cfg      *config.Config
	dataPath string
	logger   zerolog.Logger
	svc      *service.RentalService
	metrics  *metrics.Metrics
	archive  *database.Archive
	backup   *database.BackupService
	closer   io.Closer
}

func resolveConfigPath() string {
	if *configPath != "" {
		return *configPath
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

// openApp loads config, builds the logger and opens the ledger with the
// collaborators enabled in config.
func openApp(ctx context.Context, command string) (*app, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		dataPath: cfg.Storage.DataFile,
		logger:   logging.ForRun(baseLogger, command),
		closer:   closer,
	}
	if *dataPath != "" {
		a.dataPath = *dataPath
	}

	var deps service.Deps

	if cfg.Storage.ArchivePath != "" {
		archive, err := database.NewArchive(cfg.Storage.ArchivePath, &a.logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.archive = archive
		deps.Archive = archive
	}

	if cfg.Monitoring.MetricsEnabled {
		a.metrics = metrics.New()
		deps.Metrics = a.metrics
	}

	sources := []string{a.dataPath}
	if cfg.Storage.ArchivePath != "" {
		sources = append(sources, cfg.Storage.ArchivePath)
	}
	a.backup = database.NewBackupService(sources, cfg.Backup, &a.logger)
	if cfg.Backup.Enabled {
		deps.Backup = a.backup
	}

	eventBus := events.NewEventBus()
	subscribeLedgerEvents(eventBus, &a.logger)
	deps.Events = eventBus

	svc, err := service.Open(ctx, a.dataPath, deps, &a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = svc
	return a, nil
}

func subscribeLedgerEvents(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		payload, err := events.Decode(ev)
		if err != nil {
			return err
		}
		logger.Debug().
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Str("item_id", payload.ItemID).
			Str("transaction_id", payload.TransactionID).
			Msg("ledger event")
		return nil
	}
	for _, eventType := range []string{
		events.EventItemAdded,
		events.EventItemRemoved,
		events.EventItemRented,
		events.EventItemReturned,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func (a *app) save() error {
	return a.svc.Save(a.dataPath)
}

// Close flushes metrics and releases the archive and the log file.
func (a *app) Close() {
	if a.metrics != nil {
		if err := a.metrics.WriteTextfile(a.cfg.Monitoring.TextfilePath); err != nil {
			a.logger.Error().Err(err).Str("path", a.cfg.Monitoring.TextfilePath).Msg("Failed to write metrics")
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close archive")
		}
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}
