// Package mailer simulates outbound email by writing durable records.
//
// The flows treat it as a fire-and-forget side effect: each send stores one
// record and returns the link or reference to embed in the reply.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/store"
)

// Default link constants
const (
	// DefaultUploadLink is the secure upload form link embedded in candidate emails.
	DefaultUploadLink = "https://example.com/selection-portal"
	// DefaultPortalLink is the base link for school shortlist and booking references.
	DefaultPortalLink = "https://example.com/portal"
)

// Service defines the record-emitting operations the flows need.
type Service interface {
	// SendUploadForm records a document-upload email and returns the upload link.
	SendUploadForm(ctx context.Context, to, summary string) (string, error)
	// SendCandidateList records a shortlist email and returns its reference.
	SendCandidateList(ctx context.Context, to, payload string) (string, error)
}

// Opts holds configuration options for the record mailer.
type Opts struct {
	UploadLink string // link embedded in upload-form emails
	PortalLink string // base link for shortlist references
}

// Option defines a configuration option for the record mailer.
type Option func(*Opts)

// WithUploadLink sets the upload form link.
func WithUploadLink(link string) Option {
	return func(o *Opts) {
		o.UploadLink = link
	}
}

// WithPortalLink sets the portal base link.
func WithPortalLink(link string) Option {
	return func(o *Opts) {
		o.PortalLink = link
	}
}

// RecordMailer implements Service on top of a Store.
type RecordMailer struct {
	store      store.Store
	uploadLink string
	portalLink string
}

// NewRecordMailer creates a record mailer backed by the given store.
func NewRecordMailer(st store.Store, opts ...Option) *RecordMailer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.UploadLink == "" {
		cfg.UploadLink = DefaultUploadLink
	}
	if cfg.PortalLink == "" {
		cfg.PortalLink = DefaultPortalLink
	}
	slog.Debug("mailer.NewRecordMailer: creating record mailer", "uploadLink", cfg.UploadLink, "portalLink", cfg.PortalLink)
	return &RecordMailer{store: st, uploadLink: cfg.UploadLink, portalLink: cfg.PortalLink}
}

// SendUploadForm records an upload-form email and returns the upload link.
func (m *RecordMailer) SendUploadForm(ctx context.Context, to, summary string) (string, error) {
	if to == "" {
		return "", models.ErrEmptyRecipient
	}
	rec := models.EmailRecord{
		Kind:      models.EmailKindUploadForm,
		To:        to,
		Body:      summary,
		Link:      m.uploadLink,
		CreatedAt: time.Now(),
	}
	if err := m.store.AddEmailRecord(rec); err != nil {
		slog.Error("mailer.SendUploadForm: failed to record email", "error", err, "to", to)
		return "", fmt.Errorf("failed to record upload form email for %s: %w", to, err)
	}
	slog.Info("mailer.SendUploadForm: email recorded", "to", to)
	return m.uploadLink, nil
}

// SendCandidateList records a shortlist email and returns its reference link.
func (m *RecordMailer) SendCandidateList(ctx context.Context, to, payload string) (string, error) {
	if to == "" {
		return "", models.ErrEmptyRecipient
	}
	reference := fmt.Sprintf("%s/shortlists/%s", m.portalLink, models.RecipientKey(to))
	rec := models.EmailRecord{
		Kind:      models.EmailKindCandidateList,
		To:        to,
		Body:      payload,
		Link:      reference,
		CreatedAt: time.Now(),
	}
	if err := m.store.AddEmailRecord(rec); err != nil {
		slog.Error("mailer.SendCandidateList: failed to record email", "error", err, "to", to)
		return "", fmt.Errorf("failed to record candidate list email for %s: %w", to, err)
	}
	slog.Info("mailer.SendCandidateList: email recorded", "to", to, "reference", reference)
	return reference, nil
}
