// Package flow implements the scripted conversation flows for the intake assistant.
//
// Each flow is a forward-only stage machine: the active stage is derived
// entirely from the phase flags on the conversation context, so a controller
// can be rebuilt from stored context without losing its place in the script.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/mailer"
	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/store"
)

// Controller consumes one user utterance and returns exactly one reply,
// reading and writing the conversation context and history it is given.
// Controllers hold no per-turn state of their own.
type Controller interface {
	Respond(ctx context.Context, convCtx *models.ConversationContext, history *History, input string) (string, error)
}

// Factory builds a controller for one conversation session.
type Factory func(client genai.ClientInterface, sender mailer.Service, st store.Store) Controller

var registry = make(map[models.UserType]Factory)

// Register associates a user type with a controller factory.
func Register(userType models.UserType, factory Factory) {
	registry[userType] = factory
}

// Get retrieves the controller factory for a user type.
func Get(userType models.UserType) (Factory, bool) {
	factory, ok := registry[userType]
	return factory, ok
}

// New builds the controller registered for the given user type.
func New(userType models.UserType, client genai.ClientInterface, sender mailer.Service, st store.Store) (Controller, error) {
	factory, ok := Get(userType)
	if !ok {
		slog.Error("flow.New: no controller registered for user type", "userType", userType)
		return nil, fmt.Errorf("no controller registered for user type %s", userType)
	}
	slog.Debug("flow.New: controller created", "userType", userType)
	return factory(client, sender, st), nil
}

// Register default controllers
func init() {
	Register(models.UserTypeCandidate, func(client genai.ClientInterface, sender mailer.Service, st store.Store) Controller {
		return NewCandidateFlow(client, sender, st)
	})
	Register(models.UserTypeSchool, func(client genai.ClientInterface, sender mailer.Service, st store.Store) Controller {
		return NewSchoolFlow(client, sender)
	})
	Register(models.UserTypeGeneral, func(client genai.ClientInterface, sender mailer.Service, st store.Store) Controller {
		return NewTriageFlow(client)
	})
}
