// Command catalog-seed creates the catalog tables if needed and loads the
// development fixture items with their fixed identifiers.
//
//	DYNAMODB_ENDPOINT=http://localhost:8000 catalog-seed -reset
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/internal/fixtures"
	"github.com/jacentio/chips-catalog/internal/logging"
	"github.com/jacentio/chips-catalog/store"
)

func main() {
	reset := flag.Bool("reset", false, "Delete and reload fixture items that already exist")
	skipTables := flag.Bool("skip-tables", false, "Do not create missing tables")
	flag.Parse()

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := cfg.DynamoDB(ctx)
	if err != nil {
		logger.Fatal("create DynamoDB client", zap.Error(err))
	}
	s := store.New(client, cfg.Store())

	if !*skipTables {
		if err := s.EnsureTables(ctx); err != nil {
			logger.Fatal("ensure tables", zap.Error(err))
		}
	}

	if err := seed(ctx, s, logger, *reset); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
}

// seed inserts every fixture item. Existing items are kept unless reset is
// set, in which case they are deleted and inserted again at version 0.
func seed(ctx context.Context, repo catalog.Repository, logger *zap.Logger, reset bool) error {
	var inserted, skipped int
	for _, item := range fixtures.Items() {
		if reset {
			if _, err := repo.Delete(ctx, item.ID); err != nil {
				return err
			}
		}

		_, err := repo.Insert(ctx, item)
		switch {
		case err == nil:
			inserted++
			logger.Debug("inserted", zap.String("id", item.ID), zap.String("name", item.Name))
		case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, catalog.ErrDuplicateName):
			skipped++
			logger.Info("already present", zap.String("id", item.ID), zap.String("name", item.Name))
		default:
			return err
		}
	}

	logger.Info("seed completed", zap.Int("inserted", inserted), zap.Int("skipped", skipped))
	return nil
}
