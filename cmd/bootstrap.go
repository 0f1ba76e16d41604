package cmd

import (
	"context"
	"fmt"

	"broker-office/core/config"
	"broker-office/core/database"
	"broker-office/core/logger"
	"broker-office/core/ratelimit"
	"broker-office/core/sheet"
	"broker-office/core/storage"
	"broker-office/feature/seller"

	"go.uber.org/zap"
)

// bootstrap wires the full seller sync stack for CLI commands and the
// server: config, logger, database, object storage, spreadsheet client,
// and rate limiter.
func bootstrap(ctx context.Context) (*seller.Feature, *config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection required: %w", err)
	}

	objects, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := storage.EnsureBucket(ctx, objects, cfg.Storage); err != nil {
		return nil, nil, nil, err
	}

	limiter := ratelimit.New(cfg.RateLimit)

	sheetClient, err := sheet.NewClient(ctx, cfg.Sheet, limiter, logg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create sheet client: %w", err)
	}

	feature := seller.NewFeature(seller.Deps{
		DB:       db,
		Objects:  objects,
		Bucket:   cfg.Storage.Bucket,
		Sheet:    sheetClient,
		Limiter:  limiter,
		Policy:   cfg.Retry,
		Sync:     cfg.Sync,
		Health:   cfg.Health,
		Snapshot: cfg.Snapshot,
		Logger:   logg,
	})
	return feature, cfg, logg, nil
}
