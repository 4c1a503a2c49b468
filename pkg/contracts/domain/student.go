package domain

// StudentRecord is a roster entry linking a student identifier to a
// chat account. The pipeline only reads these; writes happen during
// registration in the bot layer.
type StudentRecord struct {
	StudentID string `json:"student_id" db:"student_id"`
	ChatID    string `json:"chat_id" db:"chat_id"`
	FullName  string `json:"full_name" db:"full_name"`
}

// NotificationMessage is the ephemeral payload handed to the dispatcher
// for one matched student. AttachmentPath is empty when chart rendering
// failed or was skipped.
type NotificationMessage struct {
	ChatID         string `json:"chat_id"`
	Text           string `json:"text"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

// Channel is a monitored chat-platform channel. Files posted to active
// channels are picked up by the listener.
type Channel struct {
	ID     int64  `json:"channel_id" db:"channel_id"`
	Name   string `json:"channel_name" db:"channel_name"`
	Link   string `json:"channel_link" db:"channel_link"`
	Active bool   `json:"is_active" db:"is_active"`
}
