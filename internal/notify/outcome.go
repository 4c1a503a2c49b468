package notify

import (
	"context"
	"time"
)

// Status is the result category of one delivery attempt
type Status string

const (
	// StatusSent means the platform accepted the message
	StatusSent Status = "sent"
	// StatusRateLimited means the platform asked us to back off
	StatusRateLimited Status = "rate_limited"
	// StatusFailed means the platform rejected the message
	StatusFailed Status = "failed"
)

// Outcome is the explicit result of one delivery attempt. Rate limits
// are data, not control flow: RetryAfter carries the wait the platform
// demanded, and the retry policy lives in the dispatcher where it is a
// visible branch.
type Outcome struct {
	Status     Status
	RetryAfter time.Duration
	Err        error
}

// Sent returns a successful outcome
func Sent() Outcome {
	return Outcome{Status: StatusSent}
}

// RateLimited returns a backoff outcome with the platform-specified wait
func RateLimited(retryAfter time.Duration) Outcome {
	return Outcome{Status: StatusRateLimited, RetryAfter: retryAfter}
}

// Failed returns a failed outcome carrying the platform error
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Deliverer is the single capability the pipeline needs from the chat
// platform: send a text message, optionally with an attachment, to one
// account. The core never depends on a concrete client type.
type Deliverer interface {
	Deliver(ctx context.Context, chatID, text, attachmentPath string) Outcome
}
