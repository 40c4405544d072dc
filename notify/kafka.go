package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaSender publishes notifications as JSON messages to a Kafka topic.
// The subject is used as message key.
type KafkaSender struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// NewKafkaProducer connects a synchronous producer to brokers that waits for
// all in-sync replicas.
func NewKafkaProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	if clientID != "" {
		config.ClientID = clientID
	}
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaSender creates a KafkaSender publishing to topic.
func NewKafkaSender(producer sarama.SyncProducer, topic string) *KafkaSender {
	return &KafkaSender{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Send publishes the notification and waits for the broker acknowledgement.
func (s *KafkaSender) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := encode(subject, body, s.now())
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

// Close closes the underlying producer.
func (s *KafkaSender) Close() error {
	return s.producer.Close()
}
