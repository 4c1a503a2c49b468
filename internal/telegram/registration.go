package telegram

import (
	"sync"
	"time"
)

// registrationStep tracks where a chat is in the /register flow.
type registrationStep int

const (
	stepNone registrationStep = iota
	stepAwaitingStudentID
)

// pendingRegistration is the conversation state for one chat. Stale
// entries are dropped after registrationTTL so an abandoned /register
// does not swallow an unrelated message weeks later.
type pendingRegistration struct {
	step      registrationStep
	startedAt time.Time
}

const registrationTTL = 10 * time.Minute

// registrationFlow holds per-chat registration state. Each chat owns an
// independent entry, so two students registering at the same time never
// see each other's progress.
type registrationFlow struct {
	mu      sync.Mutex
	pending map[int64]*pendingRegistration
}

func newRegistrationFlow() *registrationFlow {
	return &registrationFlow{pending: make(map[int64]*pendingRegistration)}
}

// begin marks the chat as waiting for a student identifier.
func (f *registrationFlow) begin(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[chatID] = &pendingRegistration{
		step:      stepAwaitingStudentID,
		startedAt: time.Now(),
	}
}

// awaiting reports whether the chat has a live registration in
// progress, expiring stale state as a side effect.
func (f *registrationFlow) awaiting(chatID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[chatID]
	if !ok {
		return false
	}
	if time.Since(p.startedAt) > registrationTTL {
		delete(f.pending, chatID)
		return false
	}
	return p.step == stepAwaitingStudentID
}

// finish clears the chat's registration state.
func (f *registrationFlow) finish(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, chatID)
}
