// Package store provides storage backends for the intake assistant.
//
// It records the simulated outbound emails and the per-conversation closing
// summaries, with in-memory, SQLite, and PostgreSQL implementations.
package store

import (
	"log/slog"

	"github.com/smile-education/intake-assistant/internal/models"
)

// Store defines the persistence operations the assistant needs.
type Store interface {
	AddEmailRecord(rec models.EmailRecord) error
	GetEmailRecords() ([]models.EmailRecord, error)
	SaveSummary(summary models.ConversationSummary) error
	GetSummary(key string) (*models.ConversationSummary, error)
	Close() error
}

// InMemoryStore is a simple in-memory store for tests and ephemeral runs.
type InMemoryStore struct {
	emails    []models.EmailRecord
	summaries map[string]models.ConversationSummary
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{summaries: make(map[string]models.ConversationSummary)}
}

// AddEmailRecord appends an email record.
func (s *InMemoryStore) AddEmailRecord(rec models.EmailRecord) error {
	if rec.To == "" {
		return models.ErrEmptyRecipient
	}
	s.emails = append(s.emails, rec)
	slog.Debug("InMemoryStore.AddEmailRecord succeeded", "to", rec.To, "kind", rec.Kind)
	return nil
}

// GetEmailRecords returns all recorded emails in insertion order.
func (s *InMemoryStore) GetEmailRecords() ([]models.EmailRecord, error) {
	out := make([]models.EmailRecord, len(s.emails))
	copy(out, s.emails)
	return out, nil
}

// SaveSummary stores a conversation summary, overwriting any existing entry
// with the same key.
func (s *InMemoryStore) SaveSummary(summary models.ConversationSummary) error {
	s.summaries[summary.Key] = summary
	slog.Debug("InMemoryStore.SaveSummary succeeded", "key", summary.Key)
	return nil
}

// GetSummary retrieves a conversation summary by key.
func (s *InMemoryStore) GetSummary(key string) (*models.ConversationSummary, error) {
	summary, ok := s.summaries[key]
	if !ok {
		return nil, models.ErrSummaryNotFound
	}
	return &summary, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
