package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes notifications to a logger. It is the default transport
// for local development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender. A nil logger discards notifications.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger.Named("notify")}
}

// Send logs the notification. It never fails.
func (s *LogSender) Send(_ context.Context, subject, body string) error {
	s.logger.Info("notification",
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
