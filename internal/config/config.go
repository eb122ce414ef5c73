package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"lejting/internal/models"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	DefaultDataFile    = "lejting_data.json"
	DefaultExportsPath = "exports"
	DefaultBackupPath  = "backups"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
	Items      []models.Item    `yaml:"items"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type StorageConfig struct {
	DataFile string `yaml:"data_file" env:"LEJTING_DATA_FILE" validate:"required"`
	// ArchivePath включает SQLite-архив транзакций, если не пустой
	ArchivePath string `yaml:"archive_path" env:"LEJTING_ARCHIVE_PATH"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" env:"LEJTING_LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format   string `yaml:"format" validate:"omitempty,oneof=json console"`
	Output   string `yaml:"output" validate:"omitempty,oneof=stdout stderr file"`
	FilePath string `yaml:"file_path" validate:"required_if=Output file"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled" env:"LEJTING_BACKUP_ENABLED"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	StoragePath   string `yaml:"storage_path" validate:"required_if=Enabled true"`
}

type MonitoringConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	TextfilePath   string `yaml:"textfile_path" env:"LEJTING_METRICS_TEXTFILE" validate:"required_if=MetricsEnabled true"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the YAML config at configPath, expanding ${VAR} references from
// the environment and an optional .env file. LEJTING_* variables override the
// file. A missing config file is not an error: defaults are used instead.
func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		// Предварительная замена переменных окружения в YAML
		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &config); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fieldError(ve[0])
		}
		return err
	}

	return ValidateItems(c.Items)
}

func fieldError(e validator.FieldError) error {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Errorf("%s must be greater than or equal to %s", field, e.Param())
	default:
		return fmt.Errorf("%s failed on '%s'", field, e.Tag())
	}
}

func ValidateItems(items []models.Item) error {
	// Check for duplicate item IDs
	itemIDs := make(map[string]bool)
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("item '%s' has empty ID", item.Name)
		}
		if item.Name == "" {
			return fmt.Errorf("item %s has empty name", item.ID)
		}
		if item.DailyRate.IsNegative() {
			return fmt.Errorf("item %s has negative daily rate %s", item.ID, item.DailyRate)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %s", item.ID)
		}
		itemIDs[item.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "lejting"
	}
	if c.Storage.DataFile == "" {
		c.Storage.DataFile = DefaultDataFile
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = DefaultBackupPath
	}
	if c.Exports.Path == "" {
		c.Exports.Path = DefaultExportsPath
	}
}
