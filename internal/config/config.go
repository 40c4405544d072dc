// Package config provides runtime configuration values for the catalog
// binaries.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/chips-catalog/store"
)

// Notification transports.
const (
	TransportLog   = "log"
	TransportKafka = "kafka"
	TransportMQTT  = "mqtt"
)

// Config holds table names, AWS settings and notification transport knobs.
type Config struct {
	ItemsTable       string
	UniqueTable      string
	DynamoDBEndpoint string
	AWSRegion        string
	LogLevel         string

	NotifyTransport string
	KafkaBrokers    []string
	KafkaTopic      string
	MQTTBroker      string
	MQTTTopic       string
	MQTTClientID    string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func listenv(key string, def []string) []string {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	defaults := store.DefaultConfig()
	return Config{
		ItemsTable:       getenv("CATALOG_ITEMS_TABLE", defaults.ItemsTable),
		UniqueTable:      getenv("CATALOG_UNIQUE_TABLE", defaults.UniqueTable),
		DynamoDBEndpoint: getenv("DYNAMODB_ENDPOINT", ""),
		AWSRegion:        getenv("AWS_REGION", ""),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		NotifyTransport:  strings.ToLower(getenv("NOTIFY_TRANSPORT", TransportLog)),
		KafkaBrokers:     listenv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:       getenv("KAFKA_TOPIC", "chips-catalog-notifications"),
		MQTTBroker:       getenv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTTopic:        getenv("MQTT_TOPIC", "chips/catalog/notifications"),
		MQTTClientID:     getenv("MQTT_CLIENT_ID", "chips-catalog"),
	}
}

// Validate reports configuration errors that defaults cannot fix.
func (c Config) Validate() error {
	switch c.NotifyTransport {
	case TransportLog:
	case TransportKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("NOTIFY_TRANSPORT=kafka requires KAFKA_BROKERS")
		}
	case TransportMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("NOTIFY_TRANSPORT=mqtt requires MQTT_BROKER")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_TRANSPORT %q", c.NotifyTransport)
	}
	return nil
}

// Store returns the store configuration.
func (c Config) Store() store.Config {
	cfg := store.DefaultConfig()
	cfg.ItemsTable = c.ItemsTable
	cfg.UniqueTable = c.UniqueTable
	return cfg
}

// DynamoDB creates a DynamoDB client from the default AWS credential chain.
// DynamoDBEndpoint overrides the service endpoint, e.g. for DynamoDB Local.
func (c Config) DynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(c.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(c.DynamoDBEndpoint)
		}
	}), nil
}
