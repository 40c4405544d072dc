package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mqttQoS is "at least once".
const mqttQoS = 1

// Publisher is the publishing half of an MQTT client. mqtt.Client
// satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSender publishes notifications as JSON messages to an MQTT topic.
type MQTTSender struct {
	client Publisher
	topic  string
	now    func() time.Time
}

// NewMQTTClient connects to broker and returns the connected client.
func NewMQTTClient(ctx context.Context, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return client, nil
}

// NewMQTTSender creates an MQTTSender publishing to topic.
func NewMQTTSender(client Publisher, topic string) *MQTTSender {
	return &MQTTSender{
		client: client,
		topic:  topic,
		now:    time.Now,
	}
}

// Send publishes the notification and waits until the broker acknowledged
// it or ctx is done.
func (s *MQTTSender) Send(ctx context.Context, subject, body string) error {
	payload, err := encode(subject, body, s.now())
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := wait(ctx, s.client.Publish(s.topic, mqttQoS, false, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
