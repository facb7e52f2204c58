// Package session ties one conversation together: a controller, its
// conversation context, and its message history, with turn-level atomicity.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smile-education/intake-assistant/internal/flow"
	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/mailer"
	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/store"
)

// Opts holds optional session parameters.
type Opts struct {
	HistoryLimit int
}

// Option configures a Session.
type Option func(*Opts)

// WithHistoryLimit overrides the rolling history buffer size.
func WithHistoryLimit(limit int) Option {
	return func(o *Opts) {
		o.HistoryLimit = limit
	}
}

// Session is one user's conversation with the assistant. All turn state
// lives in Context and History; the controller itself is stateless, so a
// session can be rebuilt from persisted context without losing its place.
type Session struct {
	ID         string
	Context    *models.ConversationContext
	History    *flow.History
	controller flow.Controller
}

// New creates a session for the given user type, building the registered
// controller for it.
func New(userType models.UserType, client genai.ClientInterface, sender mailer.Service, st store.Store, options ...Option) (*Session, error) {
	opts := Opts{HistoryLimit: flow.DefaultHistoryLimit}
	for _, opt := range options {
		opt(&opts)
	}

	controller, err := flow.New(userType, client, sender, st)
	if err != nil {
		return nil, fmt.Errorf("failed to create session controller: %w", err)
	}

	convCtx := models.NewConversationContext()
	convCtx.UserType = userType

	s := &Session{
		ID:         uuid.New().String(),
		Context:    convCtx,
		History:    flow.NewHistory(opts.HistoryLimit),
		controller: controller,
	}
	slog.Info("Session.New: session created", "sessionID", s.ID, "userType", userType)
	return s, nil
}

// Respond runs one conversation turn: the user message is appended to the
// history before the controller runs, so classification prompts see the
// current utterance, and on any controller error both the context and the
// history roll back to their pre-turn state.
func (s *Session) Respond(ctx context.Context, input string) (string, error) {
	contextBefore := *s.Context
	historyBefore := s.History.Snapshot()

	s.History.AddUserMessage(input)

	reply, err := s.controller.Respond(ctx, s.Context, s.History, input)
	if err != nil {
		*s.Context = contextBefore
		s.History.Restore(historyBefore)
		slog.Error("Session.Respond: turn failed, state rolled back", "sessionID", s.ID, "error", err)
		return "", fmt.Errorf("turn failed: %w", err)
	}

	s.History.AddAssistantMessage(reply)
	return reply, nil
}
