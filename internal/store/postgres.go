package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gradepulse/pkg/contracts/domain"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	defaultPingTimeout  = 5 * time.Second
)

// PostgresStore is the pgx-backed production Store
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a pgx/stdlib backed store and validates the
// connection.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist. The unique
// constraint on grades enforces at-most-once persistence per
// (student, subject, source).
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS users (
			student_id TEXT PRIMARY KEY,
			chat_id    TEXT NOT NULL,
			full_name  TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS grades (
			id          BIGSERIAL PRIMARY KEY,
			student_id  TEXT NOT NULL,
			subject_name TEXT NOT NULL,
			grade       DOUBLE PRECISION NOT NULL,
			rank        INTEGER NOT NULL,
			percentile  DOUBLE PRECISION NOT NULL,
			file_source TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (student_id, subject_name, file_source)
		);
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS channels (
			channel_id   BIGINT PRIMARY KEY,
			channel_name TEXT NOT NULL,
			channel_link TEXT NOT NULL DEFAULT '',
			is_active    BOOLEAN NOT NULL DEFAULT TRUE
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// FindUserByStudentID implements Store
func (s *PostgresStore) FindUserByStudentID(ctx context.Context, studentID string) (*domain.StudentRecord, error) {
	const query = `
		SELECT student_id, chat_id, full_name
		FROM users
		WHERE student_id = $1
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, studentID)

	var user domain.StudentRecord
	if err := row.Scan(&user.StudentID, &user.ChatID, &user.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers implements Store
func (s *PostgresStore) ListUsers(ctx context.Context) ([]domain.StudentRecord, error) {
	const query = `
		SELECT student_id, chat_id, full_name
		FROM users
		ORDER BY student_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.StudentRecord
	for rows.Next() {
		var user domain.StudentRecord
		if err := rows.Scan(&user.StudentID, &user.ChatID, &user.FullName); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpsertUser implements Store
func (s *PostgresStore) UpsertUser(ctx context.Context, user domain.StudentRecord) error {
	const query = `
		INSERT INTO users (student_id, chat_id, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id)
		DO UPDATE SET chat_id = EXCLUDED.chat_id, full_name = EXCLUDED.full_name
	`
	_, err := s.db.ExecContext(ctx, query, user.StudentID, user.ChatID, user.FullName)
	return err
}

// InsertGradeRecord implements Store
func (s *PostgresStore) InsertGradeRecord(ctx context.Context, record domain.GradeRecord) error {
	const query = `
		INSERT INTO grades (student_id, subject_name, grade, rank, percentile, file_source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, subject_name, file_source) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		record.StudentID, record.Subject, record.Grade,
		record.Rank, record.Percentile, record.Source)
	return err
}

// GetSetting implements Store
func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var value string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// UpsertSetting implements Store
func (s *PostgresStore) UpsertSetting(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

// ListChannels implements Store
func (s *PostgresStore) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	const query = `
		SELECT channel_id, channel_name, channel_link, is_active
		FROM channels
		ORDER BY channel_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Link, &ch.Active); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// AddChannel implements Store
func (s *PostgresStore) AddChannel(ctx context.Context, ch domain.Channel) error {
	const query = `
		INSERT INTO channels (channel_id, channel_name, channel_link, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (channel_id)
		DO UPDATE SET channel_name = EXCLUDED.channel_name,
		              channel_link = EXCLUDED.channel_link,
		              is_active = EXCLUDED.is_active
	`
	_, err := s.db.ExecContext(ctx, query, ch.ID, ch.Name, ch.Link, ch.Active)
	return err
}

// Ping implements Store
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}
