package notify

import (
	"context"
	"log/slog"
)

// ConsoleDeliverer logs messages instead of sending them. It stands in
// for the chat platform when no bot token is configured, so the
// pipeline can run end to end in development.
type ConsoleDeliverer struct {
	logger *slog.Logger
}

var _ Deliverer = (*ConsoleDeliverer)(nil)

// NewConsoleDeliverer creates a log-only deliverer
func NewConsoleDeliverer(logger *slog.Logger) *ConsoleDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleDeliverer{
		logger: logger.With(slog.String("component", "console_deliverer")),
	}
}

// Deliver implements Deliverer
func (d *ConsoleDeliverer) Deliver(ctx context.Context, chatID, text, attachmentPath string) Outcome {
	d.logger.InfoContext(ctx, "notification (console)",
		slog.String("chat_id", chatID),
		slog.String("text", text),
		slog.String("attachment", attachmentPath))
	return Sent()
}
