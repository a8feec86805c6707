package sms

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender only logs messages. It is meant for local development.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) (*Result, error) {
	id := "log-" + uuid.NewString()
	s.logger.Info("SMS not delivered (log provider)",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("body", msg.Body),
		zap.String("messageID", id))

	return &Result{MessageID: id, Status: "logged"}, nil
}
