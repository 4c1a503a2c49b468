package store

import (
	"context"
	"sync"
	"time"

	"gradepulse/pkg/contracts/domain"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// lets the service run without database credentials, trading
// durability for availability the same way the rest of the system
// degrades instead of crashing.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.StudentRecord
	grades   map[gradeKey]domain.GradeRecord
	settings map[string]string
	channels []domain.Channel
}

type gradeKey struct {
	studentID string
	subject   string
	source    string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.StudentRecord),
		grades:   make(map[gradeKey]domain.GradeRecord),
		settings: make(map[string]string),
	}
}

// FindUserByStudentID implements Store
func (s *MemoryStore) FindUserByStudentID(_ context.Context, studentID string) (*domain.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, ok := s.users[studentID]; ok {
		return &user, nil
	}
	return nil, nil
}

// ListUsers implements Store. Roster order is insertion-independent but
// stable within one process run.
func (s *MemoryStore) ListUsers(_ context.Context) ([]domain.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.StudentRecord, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

// UpsertUser implements Store
func (s *MemoryStore) UpsertUser(_ context.Context, user domain.StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.StudentID] = user
	return nil
}

// InsertGradeRecord implements Store. Duplicate (student, subject,
// source) inserts are silently ignored.
func (s *MemoryStore) InsertGradeRecord(_ context.Context, record domain.GradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := gradeKey{record.StudentID, record.Subject, record.Source}
	if _, exists := s.grades[key]; exists {
		return nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.grades[key] = record
	return nil
}

// GetSetting implements Store
func (s *MemoryStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[key], nil
}

// UpsertSetting implements Store
func (s *MemoryStore) UpsertSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// ListChannels implements Store
func (s *MemoryStore) ListChannels(_ context.Context) ([]domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]domain.Channel, len(s.channels))
	copy(channels, s.channels)
	return channels, nil
}

// AddChannel implements Store. Re-adding an existing channel ID
// replaces its entry, matching the Postgres upsert.
func (s *MemoryStore) AddChannel(_ context.Context, ch domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.channels {
		if existing.ID == ch.ID {
			s.channels[i] = ch
			return nil
		}
	}
	s.channels = append(s.channels, ch)
	return nil
}

// Ping implements Store
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// GradeRecords returns a snapshot of all persisted grade records.
// Test helper.
func (s *MemoryStore) GradeRecords() []domain.GradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.GradeRecord, 0, len(s.grades))
	for _, record := range s.grades {
		records = append(records, record)
	}
	return records
}
