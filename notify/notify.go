// Package notify delivers catalog notifications. Every sender satisfies
// catalog.Notifier.
package notify

import (
	"time"

	"github.com/goccy/go-json"
)

// Message is the payload published by the Kafka and MQTT senders.
type Message struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

func encode(subject, body string, now time.Time) ([]byte, error) {
	return json.Marshal(Message{
		Subject: subject,
		Body:    body,
		SentAt:  now.UTC(),
	})
}
