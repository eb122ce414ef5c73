package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lejting/internal/config"
	"lejting/internal/models"
	"lejting/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ItemsConfig struct {
	Items []models.Item `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		itemsPath = flag.String("items", "configs/items.yaml", "path to items.yaml")
		dataPath  = flag.String("data", config.DefaultDataFile, "path to ledger data file")
	)
	flag.Parse()

	data, err := os.ReadFile(*itemsPath)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	var cfg ItemsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse items: %w", err)
	}
	if len(cfg.Items) == 0 {
		return fmt.Errorf("no items in yaml")
	}
	if err = config.ValidateItems(cfg.Items); err != nil {
		return fmt.Errorf("validate items: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, err := service.Open(ctx, *dataPath, service.Deps{}, &logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	created, err := svc.Seed(ctx, cfg.Items)
	if err != nil {
		return fmt.Errorf("import items: %w", err)
	}
	skipped := len(cfg.Items) - created

	if created > 0 {
		if err = svc.Save(*dataPath); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}
