package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jacentio/chips-catalog/catalog"
	"github.com/jacentio/chips-catalog/internal/config"
	"github.com/jacentio/chips-catalog/notify"
)

const kafkaClientID = "chips-catalog"

// mqttDisconnectQuiesce is how long, in milliseconds, an MQTT disconnect
// waits for in-flight work.
const mqttDisconnectQuiesce = 250

// newNotifier builds the create notifier for the configured transport. The
// returned close function releases the transport connection.
func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Notifier, func() error, error) {
	switch cfg.NotifyTransport {
	case config.TransportLog:
		return notify.NewLogSender(logger), func() error { return nil }, nil

	case config.TransportKafka:
		producer, err := notify.NewKafkaProducer(cfg.KafkaBrokers, kafkaClientID)
		if err != nil {
			return nil, nil, err
		}
		sender := notify.NewKafkaSender(producer, cfg.KafkaTopic)
		return sender, sender.Close, nil

	case config.TransportMQTT:
		client, err := notify.NewMQTTClient(ctx, cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error {
			client.Disconnect(mqttDisconnectQuiesce)
			return nil
		}
		return notify.NewMQTTSender(client, cfg.MQTTTopic), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown notification transport %q", cfg.NotifyTransport)
}
