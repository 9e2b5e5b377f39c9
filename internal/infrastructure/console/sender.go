// Package console provides an SMS sender for local development that writes
// messages to the structured log instead of a carrier.
package console

import (
	"context"
	"log/slog"
)

type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) SendSMS(ctx context.Context, to, message string) error {
	s.logger.InfoContext(ctx, "sms (console)", "to", to, "body", message)
	return nil
}
