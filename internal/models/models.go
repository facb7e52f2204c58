// Package models defines the shared data structures for the intake assistant.
//
// It includes the user-type constants, the records produced by the simulated
// email sender, and the persisted conversation summaries.
package models

import (
	"errors"
	"time"
)

// UserType identifies which scripted flow handles a conversation.
type UserType string

const (
	// UserTypeCandidate routes to the candidate registration flow.
	UserTypeCandidate UserType = "candidate"
	// UserTypeSchool routes to the school recruitment flow.
	UserTypeSchool UserType = "school"
	// UserTypeGeneral routes to the triage flow.
	UserTypeGeneral UserType = "general"
)

// EmailKind distinguishes the records the simulated email sender produces.
type EmailKind string

const (
	// EmailKindUploadForm is the secure document-upload form sent to candidates.
	EmailKindUploadForm EmailKind = "upload_form"
	// EmailKindCandidateList is the candidate shortlist sent to schools.
	EmailKindCandidateList EmailKind = "candidate_list"
)

// Error variables for better error handling and testability
var (
	ErrUnknownContextField = errors.New("unknown conversation context field")
	ErrEmptyRecipient      = errors.New("recipient cannot be empty")
	ErrSummaryNotFound     = errors.New("conversation summary not found")
)

// EmailRecord is the durable record of one simulated outbound email.
// Sending twice produces two records; there is no dedup.
type EmailRecord struct {
	Kind      EmailKind `json:"kind"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is the persisted closing record for a candidate
// conversation, keyed by the sanitized contact email. Saving the same key
// twice overwrites the earlier summary.
type ConversationSummary struct {
	Key            string    `json:"key"`
	ContextDump    string    `json:"context_dump"`
	ClosingMessage string    `json:"closing_message"`
	CreatedAt      time.Time `json:"created_at"`
}

// ParseUserType maps a menu choice or stored value to a UserType,
// defaulting to the general triage flow.
func ParseUserType(s string) UserType {
	switch UserType(s) {
	case UserTypeCandidate, UserTypeSchool:
		return UserType(s)
	default:
		return UserTypeGeneral
	}
}
