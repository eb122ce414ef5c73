package database

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lejting/internal/config"

	"github.com/rs/zerolog"
)

// BackupService copies the ledger data file and the transaction archive into
// a backups directory. It runs on demand; there is no background schedule.
type BackupService struct {
	sources []string
	config  config.BackupConfig
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewBackupService(sources []string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		sources: sources,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// PerformBackup snapshots every existing source and returns the written paths.
// Sources that do not exist yet are skipped.
func (s *BackupService) PerformBackup() ([]string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := s.now().Format("20060102_150405.000000")
	var written []string
	for _, src := range s.sources {
		if src == "" {
			continue
		}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}

		ext := filepath.Ext(src)
		base := strings.TrimSuffix(filepath.Base(src), ext)
		backupPath := filepath.Join(s.config.StoragePath, fmt.Sprintf("%s_%s%s", base, timestamp, ext))

		var err error
		if ext == ".db" || ext == ".sqlite" {
			err = s.backupSQLite(src, backupPath)
		} else {
			err = copyFile(src, backupPath)
		}
		if err != nil {
			return written, fmt.Errorf("backup %s: %w", src, err)
		}

		s.logger.Info().Str("source", src).Str("path", backupPath).Msg("Backup completed")
		written = append(written, backupPath)
	}
	return written, nil
}

func (s *BackupService) backupSQLite(src, dst string) error {
	db, err := sql.Open("sqlite3", src)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	// VACUUM INTO gives a consistent copy even with an open writer
	if _, err := db.Exec(`VACUUM INTO ?`, dst); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		return copyFile(src, dst)
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return err
	}
	return destination.Close()
}

// CleanupOldBackups removes backups older than the retention window and
// returns how many files were deleted.
func (s *BackupService) CleanupOldBackups() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)

	var removed int
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("Deleting old backup")
			if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete old backup")
				continue
			}
			removed++
		}
	}
	return removed
}
