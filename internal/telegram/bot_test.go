package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"gradepulse/internal/notify"
)

func TestMapSendError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus notify.Status
		wantWait   time.Duration
	}{
		{
			name: "rate limit with retry_after",
			err: &tgbotapi.Error{
				Code:    429,
				Message: "Too Many Requests",
				ResponseParameters: tgbotapi.ResponseParameters{
					RetryAfter: 5,
				},
			},
			wantStatus: notify.StatusRateLimited,
			wantWait:   5 * time.Second,
		},
		{
			name: "api error without retry_after",
			err: &tgbotapi.Error{
				Code:    403,
				Message: "Forbidden: bot was blocked by the user",
			},
			wantStatus: notify.StatusFailed,
		},
		{
			name:       "transport error",
			err:        errors.New("connection reset"),
			wantStatus: notify.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := mapSendError(tt.err)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Equal(t, tt.wantWait, outcome.RetryAfter)
			if tt.wantStatus == notify.StatusFailed {
				assert.Error(t, outcome.Err)
			}
		})
	}
}

func TestRegistrationFlow(t *testing.T) {
	flow := newRegistrationFlow()

	assert.False(t, flow.awaiting(100))

	flow.begin(100)
	assert.True(t, flow.awaiting(100))
	assert.False(t, flow.awaiting(200), "state must be per chat")

	flow.finish(100)
	assert.False(t, flow.awaiting(100))
}

func TestRegistrationFlowExpires(t *testing.T) {
	flow := newRegistrationFlow()
	flow.begin(100)
	flow.pending[100].startedAt = time.Now().Add(-registrationTTL - time.Minute)

	assert.False(t, flow.awaiting(100))
	assert.False(t, flow.awaiting(100), "expired state is removed")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", displayName(&tgbotapi.User{FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "Ada", displayName(&tgbotapi.User{FirstName: "Ada"}))
	assert.Equal(t, "adal", displayName(&tgbotapi.User{UserName: "adal"}))
	assert.Equal(t, "", displayName(nil))
}
