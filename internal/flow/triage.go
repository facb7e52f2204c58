// Package flow implements the scripted conversation flows for the intake assistant.
//
// This file implements the triage flow: a fixed greeting menu, advisory
// redirects for recognized phrases, and LLM passthrough for everything else.
package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/models"
)

// Triage flow reply templates
const (
	msgTriageMenu = "👋 Hi there! Are you here to:\n" +
		"  1. Find a teaching job\n" +
		"  2. Recruit staff for your school\n" +
		"Or ask me anything about how Smile Education works."

	msgCandidateRedirect = "Great — I'll connect you to our candidate flow. " +
		"Please restart and type 'start' to begin."

	msgSchoolRedirect = "Excellent — I'll connect you to our school recruitment flow. " +
		"Please restart and type 'start' to begin."
)

// TriageFlow greets the user and routes them to one of the two business flows.
// The redirect is advisory text only; the controller never instantiates the
// target flow itself, and it collects no profile data.
type TriageFlow struct {
	genaiClient genai.ClientInterface
}

// NewTriageFlow creates a triage flow controller.
func NewTriageFlow(client genai.ClientInterface) *TriageFlow {
	return &TriageFlow{genaiClient: client}
}

// Respond processes one triage utterance. The first turn always returns the
// menu regardless of input.
func (f *TriageFlow) Respond(ctx context.Context, convCtx *models.ConversationContext, history *History, input string) (string, error) {
	if !hasGreeted(history) {
		return msgTriageMenu, nil
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "find job", "find a job", "job", "looking for work":
		convCtx.UserType = models.UserTypeCandidate
		slog.Info("TriageFlow routed user", "userType", convCtx.UserType)
		return msgCandidateRedirect, nil
	case "2", "recruit staff", "recruit", "staff", "looking to recruit":
		convCtx.UserType = models.UserTypeSchool
		slog.Info("TriageFlow routed user", "userType", convCtx.UserType)
		return msgSchoolRedirect, nil
	}

	messages := buildMessages(BuildSystemPrompt(models.UserTypeGeneral, convCtx), history, strings.TrimSpace(input))
	return f.genaiClient.GenerateWithMessages(ctx, messages)
}

// hasGreeted reports whether the assistant has spoken yet in this session.
func hasGreeted(history *History) bool {
	for _, msg := range history.Messages() {
		if msg.Role == RoleAssistant {
			return true
		}
	}
	return false
}
