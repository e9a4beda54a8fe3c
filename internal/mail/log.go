package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them.
// It is the development default.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a LogSender writing to log.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	to := make([]string, len(msg.To))
	for i, a := range msg.To {
		to[i] = a.Email
	}
	s.log.Info("mail captured by log transport",
		zap.Strings("to", to),
		zap.Int("cc", len(msg.Cc)),
		zap.String("subject", msg.Subject),
	)
	s.log.Debug("mail body", zap.String("subject", msg.Subject), zap.String("html", msg.HTML))
	return nil
}
