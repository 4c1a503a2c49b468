// Package notify formats and delivers per-student grade notifications,
// honoring platform rate limits.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gradepulse/pkg/contracts/domain"
)

// DeliveryState is the terminal state of one dispatched notification
type DeliveryState string

const (
	// StateSent means the notification reached the platform
	StateSent DeliveryState = "SENT"
	// StateFailed means the notification was abandoned
	StateFailed DeliveryState = "FAILED"
	// StateSkipped means there was no recipient to deliver to
	StateSkipped DeliveryState = "SKIPPED"
)

// Dispatcher delivers notification messages through a Deliverer.
//
// Delivery policy: a rate-limit outcome suspends the dispatcher for
// exactly the platform-indicated duration and the same message is
// retried once; a second rate limit fails the delivery without another
// wait. Any other delivery error fails the delivery immediately. The
// dispatcher serializes sends through a limiter and a mutex, so a
// backoff holds every pending delivery in the batch, not just the one
// that tripped the limit.
type Dispatcher struct {
	deliverer Deliverer
	limiter   *rate.Limiter
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger

	mu sync.Mutex
}

// NewDispatcher creates a dispatcher pacing sends at messagesPerSecond
func NewDispatcher(deliverer Deliverer, messagesPerSecond float64, burst int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		deliverer: deliverer,
		limiter:   rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
		sleep:     sleepContext,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// MessageVars builds the template variable set for one matched student
func MessageVars(subject string, row domain.CleanedRow) map[string]string {
	return map[string]string{
		"subject":    subject,
		"grade":      strconv.FormatFloat(row.Grade, 'f', -1, 64),
		"rank":       strconv.Itoa(row.Rank),
		"percentile": strconv.FormatFloat(row.Percentile, 'f', 2, 64),
	}
}

// Dispatch delivers one notification message. A message without a chat
// account is skipped silently: post-match this should not occur, but a
// missing recipient must not fail the batch. The returned error is
// non-nil only for the terminal FAILED state and never aborts other
// students' deliveries; callers log it and continue.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.NotificationMessage) (DeliveryState, error) {
	if msg.ChatID == "" {
		d.logger.InfoContext(ctx, "no recipient for notification, skipping")
		return StateSkipped, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.limiter.Wait(ctx); err != nil {
		return StateFailed, fmt.Errorf("dispatch cancelled: %w", err)
	}

	outcome := d.deliverer.Deliver(ctx, msg.ChatID, msg.Text, msg.AttachmentPath)
	switch outcome.Status {
	case StatusSent:
		d.logger.InfoContext(ctx, "notification sent",
			slog.String("chat_id", msg.ChatID),
			slog.Bool("with_attachment", msg.AttachmentPath != ""))
		return StateSent, nil

	case StatusRateLimited:
		d.logger.WarnContext(ctx, "rate limited, backing off",
			slog.String("chat_id", msg.ChatID),
			slog.Duration("retry_after", outcome.RetryAfter))

		if err := d.sleep(ctx, outcome.RetryAfter); err != nil {
			return StateFailed, fmt.Errorf("backoff interrupted: %w", err)
		}

		retry := d.deliverer.Deliver(ctx, msg.ChatID, msg.Text, msg.AttachmentPath)
		switch retry.Status {
		case StatusSent:
			d.logger.InfoContext(ctx, "notification sent on retry",
				slog.String("chat_id", msg.ChatID))
			return StateSent, nil
		case StatusRateLimited:
			// One retry only; a second rate limit is terminal.
			return StateFailed, fmt.Errorf("rate limited twice delivering to %s", msg.ChatID)
		default:
			return StateFailed, fmt.Errorf("retry delivery to %s failed: %w", msg.ChatID, retry.Err)
		}

	default:
		return StateFailed, fmt.Errorf("delivery to %s failed: %w", msg.ChatID, outcome.Err)
	}
}

// sleepContext sleeps for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
