// Command catalog is an operator CLI for the chips catalog. It runs the read
// and write services directly against the configured DynamoDB tables.
//
//	catalog get 000000000000000000000001
//	catalog find kind=KARTOFFEL ungarisch=true
//	catalog create < item.json
//	catalog update -version '"0"' 000000000000000000000001 < item.json
//	catalog delete 000000000000000000000001
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/internal/logging"
	"github.com/jacentio/chips-catalog/store"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := cfg.DynamoDB(ctx)
	if err != nil {
		logger.Error("create DynamoDB client", zap.Error(err))
		return 1
	}
	repo := store.New(client, cfg.Store())

	notifier, closeNotifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("create notifier", zap.Error(err))
		return 1
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Warn("close notifier", zap.Error(err))
		}
	}()

	a := &app{
		read:  catalog.NewReadService(repo, logger),
		write: catalog.NewWriteService(repo, nil, notifier, logger),
		in:    os.Stdin,
		out:   os.Stdout,
	}
	return exitCode(a.run(ctx, os.Args[1:]))
}

// exitCode prints err and maps it to a process exit code: 2 for usage
// errors, 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(os.Stderr, usage.Error())
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	fmt.Fprintln(os.Stderr, message(err))
	return 1
}

// message returns the user-facing text of err. Catalog taxonomy errors
// carry their own German message.
func message(err error) string {
	var updateErr catalog.UpdateError
	if errors.As(err, &updateErr) {
		return updateErr.Message()
	}
	var createErr catalog.CreateError
	if errors.As(err, &createErr) {
		return createErr.Message()
	}
	return err.Error()
}
