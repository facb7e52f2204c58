// Package store provides storage backends for the intake assistant.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smile-education/intake-assistant/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists email records and summaries in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options.
// The DSN is a file path to the database; missing directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewSQLiteStore: creating SQLite store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewSQLiteStore: migrations applied")

	return &SQLiteStore{db: db}, nil
}

// AddEmailRecord inserts an email record.
func (s *SQLiteStore) AddEmailRecord(rec models.EmailRecord) error {
	if rec.To == "" {
		return models.ErrEmptyRecipient
	}
	_, err := s.db.Exec(
		`INSERT INTO email_records (kind, recipient, body, link, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Kind, rec.To, rec.Body, rec.Link, rec.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddEmailRecord failed", "error", err, "to", rec.To)
		return fmt.Errorf("failed to insert email record for %s: %w", rec.To, err)
	}
	slog.Debug("SQLiteStore.AddEmailRecord succeeded", "to", rec.To, "kind", rec.Kind)
	return nil
}

// GetEmailRecords returns all email records in insertion order.
func (s *SQLiteStore) GetEmailRecords() ([]models.EmailRecord, error) {
	rows, err := s.db.Query(`SELECT kind, recipient, body, link, created_at FROM email_records ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore.GetEmailRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query email records: %w", err)
	}
	defer rows.Close()

	var records []models.EmailRecord
	for rows.Next() {
		var rec models.EmailRecord
		if err := rows.Scan(&rec.Kind, &rec.To, &rec.Body, &rec.Link, &rec.CreatedAt); err != nil {
			slog.Error("SQLiteStore.GetEmailRecords scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan email record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore.GetEmailRecords rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate email record rows: %w", err)
	}
	return records, nil
}

// SaveSummary upserts a conversation summary keyed by sanitized contact email.
func (s *SQLiteStore) SaveSummary(summary models.ConversationSummary) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_summaries (key, context_dump, closing_message, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET context_dump=excluded.context_dump,
		 closing_message=excluded.closing_message, created_at=excluded.created_at`,
		summary.Key, summary.ContextDump, summary.ClosingMessage, summary.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.SaveSummary failed", "error", err, "key", summary.Key)
		return fmt.Errorf("failed to save summary for %s: %w", summary.Key, err)
	}
	slog.Debug("SQLiteStore.SaveSummary succeeded", "key", summary.Key)
	return nil
}

// GetSummary retrieves a conversation summary by key.
func (s *SQLiteStore) GetSummary(key string) (*models.ConversationSummary, error) {
	row := s.db.QueryRow(
		`SELECT key, context_dump, closing_message, created_at FROM conversation_summaries WHERE key = ?`, key,
	)
	var summary models.ConversationSummary
	if err := row.Scan(&summary.Key, &summary.ContextDump, &summary.ClosingMessage, &summary.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSummaryNotFound
		}
		slog.Error("SQLiteStore.GetSummary scan failed", "error", err, "key", key)
		return nil, fmt.Errorf("failed to scan summary row: %w", err)
	}
	return &summary, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
