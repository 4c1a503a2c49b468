// Package telegram is the chat-platform edge: it listens for grade
// files in monitored channels, handles student registration commands
// and delivers notifications. The pipeline core never sees these types;
// it consumes the notify.Deliverer capability only.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gradepulse/internal/notify"
)

// Bot wraps the Telegram Bot API client
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewBot connects to the Telegram Bot API. A rate-limit response during
// startup is returned as-is; the caller treats it as fatal rather than
// retry-looping against the platform.
func NewBot(token string, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to connect: %w", err)
	}

	logger.Info("telegram bot connected", slog.String("username", api.Self.UserName))

	return &Bot{
		api:    api,
		logger: logger.With(slog.String("component", "telegram")),
	}, nil
}

var _ notify.Deliverer = (*Bot)(nil)

// Deliver implements notify.Deliverer. Messages with an attachment are
// sent as a photo with the text as caption; otherwise as plain text.
func (b *Bot) Deliver(ctx context.Context, chatID, text, attachmentPath string) notify.Outcome {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return notify.Failed(fmt.Errorf("invalid chat id %q: %w", chatID, err))
	}

	var payload tgbotapi.Chattable
	if attachmentPath != "" {
		photo := tgbotapi.NewPhoto(id, tgbotapi.FilePath(attachmentPath))
		photo.Caption = text
		payload = photo
	} else {
		payload = tgbotapi.NewMessage(id, text)
	}

	if _, err := b.api.Send(payload); err != nil {
		return mapSendError(err)
	}
	return notify.Sent()
}

// mapSendError converts a Bot API error into a delivery outcome. A 429
// with retry_after becomes an explicit RateLimited outcome so the
// dispatcher's retry policy stays a visible branch.
func mapSendError(err error) notify.Outcome {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return notify.RateLimited(time.Duration(tgErr.RetryAfter) * time.Second)
	}
	return notify.Failed(err)
}

// reply sends a plain text response in a conversation, best effort
func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("failed to send reply",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}
