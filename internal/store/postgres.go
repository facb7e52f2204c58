// Package store provides storage backends for the intake assistant.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/smile-education/intake-assistant/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists email records and summaries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewPostgresStore: migrations applied")

	return &PostgresStore{db: db}, nil
}

// AddEmailRecord inserts an email record.
func (s *PostgresStore) AddEmailRecord(rec models.EmailRecord) error {
	if rec.To == "" {
		return models.ErrEmptyRecipient
	}
	_, err := s.db.Exec(
		`INSERT INTO email_records (kind, recipient, body, link, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.Kind, rec.To, rec.Body, rec.Link, rec.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.AddEmailRecord failed", "error", err, "to", rec.To)
		return fmt.Errorf("failed to insert email record for %s: %w", rec.To, err)
	}
	slog.Debug("PostgresStore.AddEmailRecord succeeded", "to", rec.To, "kind", rec.Kind)
	return nil
}

// GetEmailRecords returns all email records in insertion order.
func (s *PostgresStore) GetEmailRecords() ([]models.EmailRecord, error) {
	rows, err := s.db.Query(`SELECT kind, recipient, body, link, created_at FROM email_records ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore.GetEmailRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query email records: %w", err)
	}
	defer rows.Close()

	var records []models.EmailRecord
	for rows.Next() {
		var rec models.EmailRecord
		if err := rows.Scan(&rec.Kind, &rec.To, &rec.Body, &rec.Link, &rec.CreatedAt); err != nil {
			slog.Error("PostgresStore.GetEmailRecords scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan email record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore.GetEmailRecords rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate email record rows: %w", err)
	}
	return records, nil
}

// SaveSummary upserts a conversation summary keyed by sanitized contact email.
func (s *PostgresStore) SaveSummary(summary models.ConversationSummary) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_summaries (key, context_dump, closing_message, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET context_dump=EXCLUDED.context_dump,
		 closing_message=EXCLUDED.closing_message, created_at=EXCLUDED.created_at`,
		summary.Key, summary.ContextDump, summary.ClosingMessage, summary.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.SaveSummary failed", "error", err, "key", summary.Key)
		return fmt.Errorf("failed to save summary for %s: %w", summary.Key, err)
	}
	slog.Debug("PostgresStore.SaveSummary succeeded", "key", summary.Key)
	return nil
}

// GetSummary retrieves a conversation summary by key.
func (s *PostgresStore) GetSummary(key string) (*models.ConversationSummary, error) {
	row := s.db.QueryRow(
		`SELECT key, context_dump, closing_message, created_at FROM conversation_summaries WHERE key = $1`, key,
	)
	var summary models.ConversationSummary
	if err := row.Scan(&summary.Key, &summary.ContextDump, &summary.ClosingMessage, &summary.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSummaryNotFound
		}
		slog.Error("PostgresStore.GetSummary scan failed", "error", err, "key", key)
		return nil, fmt.Errorf("failed to scan summary row: %w", err)
	}
	return &summary, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
