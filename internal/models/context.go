// Package models defines the shared data structures for the intake assistant.
//
// ConversationContext is the single source of truth for where a conversation
// is in its script: identity and requirement fields are set exactly once, and
// phase flags only ever flip from false to true.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ConversationContext holds every field the scripted flows may collect,
// plus the phase flags gating stage transitions. The field set is closed:
// code accesses fields directly (checked at compile time), and JSON decoding
// rejects unknown keys with ErrUnknownContextField.
type ConversationContext struct {
	UserType UserType `json:"user_type,omitempty"`

	// Candidate flow
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Postcode           string `json:"postcode,omitempty"`
	OnboardingComplete bool   `json:"onboarding_complete"`
	DocumentsChecked   bool   `json:"documents_checked"`
	UploadEmailSent    bool   `json:"upload_email_sent"`

	// School flow
	SchoolName           string `json:"school_name,omitempty"`
	SchoolPostcode       string `json:"school_postcode,omitempty"`
	SchoolEmail          string `json:"school_email,omitempty"`
	SchoolPhone          string `json:"school_phone,omitempty"`
	StartDate            string `json:"start_date,omitempty"`
	ContractLength       string `json:"contract_length,omitempty"`
	RequirementsCaptured bool   `json:"requirements_captured"`
	SuggestionsSent      bool   `json:"suggestions_sent"`
	FinalClosed          bool   `json:"final_closed"`
}

// NewConversationContext returns an empty context for a fresh session.
func NewConversationContext() *ConversationContext {
	return &ConversationContext{}
}

// Dump renders every field whose value is neither empty nor false as
// "name: value", one per line, in field declaration order. The output is
// deterministic for a given context, so it is safe to reuse inside
// classification prompts and persisted summaries.
func (c *ConversationContext) Dump() string {
	var b strings.Builder
	appendField(&b, "user_type", string(c.UserType))
	appendField(&b, "name", c.Name)
	appendField(&b, "email", c.Email)
	appendField(&b, "phone", c.Phone)
	appendField(&b, "postcode", c.Postcode)
	appendFlag(&b, "onboarding_complete", c.OnboardingComplete)
	appendFlag(&b, "documents_checked", c.DocumentsChecked)
	appendFlag(&b, "upload_email_sent", c.UploadEmailSent)
	appendField(&b, "school_name", c.SchoolName)
	appendField(&b, "school_postcode", c.SchoolPostcode)
	appendField(&b, "school_email", c.SchoolEmail)
	appendField(&b, "school_phone", c.SchoolPhone)
	appendField(&b, "start_date", c.StartDate)
	appendField(&b, "contract_length", c.ContractLength)
	appendFlag(&b, "requirements_captured", c.RequirementsCaptured)
	appendFlag(&b, "suggestions_sent", c.SuggestionsSent)
	appendFlag(&b, "final_closed", c.FinalClosed)
	return strings.TrimSuffix(b.String(), "\n")
}

func appendField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func appendFlag(b *strings.Builder, name string, value bool) {
	if !value {
		return
	}
	b.WriteString(name)
	b.WriteString(": true\n")
}

// ToJSON serializes the context to a JSON string.
func (c *ConversationContext) ToJSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation context: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a context from a JSON string. Unknown fields are a
// programming error on the producer's side and are rejected with
// ErrUnknownContextField rather than silently dropped.
func (c *ConversationContext) FromJSON(jsonStr string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(jsonStr)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return fmt.Errorf("%w: %v", ErrUnknownContextField, err)
		}
		return fmt.Errorf("failed to unmarshal conversation context: %w", err)
	}
	return nil
}

// RecipientKey derives the storage key for a contact identifier:
// lower-cased with spaces replaced by underscores, safe for filenames and
// primary keys alike.
func RecipientKey(contact string) string {
	return strings.ReplaceAll(strings.ToLower(contact), " ", "_")
}
