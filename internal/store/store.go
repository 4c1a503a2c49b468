// Package store provides persistence for students, grades, settings
// and monitored channels.
//
// The pipeline treats every call as a fallible remote operation; an
// absent row is a valid outcome (nil / empty, not an error). Two
// implementations exist: a Postgres-backed store for production and an
// in-memory store used in tests and when no DSN is configured.
package store

import (
	"context"

	"gradepulse/pkg/contracts/domain"
)

// Well-known setting keys
const (
	SettingWelcomeMessage = "welcome_message"
	SettingResultTemplate = "result_message_template"
)

// Store is the persistence boundary consumed by the pipeline, the bot
// and the dashboard.
type Store interface {
	// FindUserByStudentID returns the roster entry for a student
	// identifier, or (nil, nil) when none is registered.
	FindUserByStudentID(ctx context.Context, studentID string) (*domain.StudentRecord, error)

	// ListUsers returns the full roster.
	ListUsers(ctx context.Context) ([]domain.StudentRecord, error)

	// UpsertUser registers a student or re-binds an existing student
	// identifier to a new chat account.
	UpsertUser(ctx context.Context, user domain.StudentRecord) error

	// InsertGradeRecord persists a computed grade fact. Re-inserting
	// the same (student, subject, source) is a no-op, which makes
	// re-ingesting an identical file idempotent.
	InsertGradeRecord(ctx context.Context, record domain.GradeRecord) error

	// GetSetting returns a named setting value, or "" when unset.
	GetSetting(ctx context.Context, key string) (string, error)

	// UpsertSetting creates or replaces a named setting.
	UpsertSetting(ctx context.Context, key, value string) error

	// ListChannels returns all monitored channels.
	ListChannels(ctx context.Context) ([]domain.Channel, error)

	// AddChannel registers a channel for monitoring.
	AddChannel(ctx context.Context, ch domain.Channel) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
