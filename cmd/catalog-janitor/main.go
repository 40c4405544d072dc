// Command catalog-janitor is the AWS Lambda function attached to the items
// table stream. It releases name constraints of items removed or renamed
// outside the catalog store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/internal/logging"
	"github.com/jacentio/chips-catalog/store"
	"github.com/jacentio/chips-catalog/stream"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client, err := cfg.DynamoDB(context.Background())
	if err != nil {
		logger.Fatal("create DynamoDB client", zap.Error(err))
	}

	handler := stream.NewHandler(store.New(client, cfg.Store()), logger)
	lambda.Start(handler.HandleEvent)
}
