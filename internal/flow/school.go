// Package flow implements the scripted conversation flows for the intake assistant.
//
// This file implements the school recruitment flow: onboarding, requirement
// gathering, candidate suggestions, and the keyword-driven pre-close branch.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/mailer"
	"github.com/smile-education/intake-assistant/internal/models"
)

// sendTriggers are the substrings meaning "email me the CVs".
var sendTriggers = []string{"please send", "send", "email", "yes", "okay", "sure"}

// bookingTriggers are the substrings meaning "book an interview".
var bookingTriggers = []string{"interview", "schedule", "book", "portal"}

// School flow reply templates
const (
	msgAskSchoolName     = "What is your school's name?"
	msgAskSchoolPostcode = "What is your school's postcode? 📍"
	msgAskSchoolEmail    = "And your best email address? ✉️"
	msgAskSchoolPhone    = "Finally, your phone number? 📱"

	msgAskStartDate       = "When do you need this role to start?"
	msgSchoolDetailsSaved = "✅ Thanks! I have your school details.\n\n" + msgAskStartDate
	msgAskContractLength  = "And how long do you need the contract for? (e.g. 6 months, permanent)"

	msgSuggestions = "✅ Here are 3 candidates I've found:\n\n%s\n\n" +
		"Would you like me to email you their full CVs? (type 'yes' or ask any questions)"

	msgCandidateListSent = "📧 Email sent!\n\n" +
		"You can view the shortlist here: %s\n\n" +
		"You can now select a candidate and book interviews directly via our portal. " +
		"If you need anything else, just let me know!"

	msgBookingPortalSent = "📧 Interview-portal email sent!\n\n" +
		"You can book your interview here: %s\n\n" +
		"Let me know if you need anything else."
)

// SchoolFlow walks a hiring school through requirements and candidate selection.
type SchoolFlow struct {
	genaiClient genai.ClientInterface
	sender      mailer.Service
}

// NewSchoolFlow creates a school flow controller.
func NewSchoolFlow(client genai.ClientInterface, sender mailer.Service) *SchoolFlow {
	return &SchoolFlow{genaiClient: client, sender: sender}
}

// Respond processes one school utterance. The active stage is derived from
// the phase flags alone.
func (f *SchoolFlow) Respond(ctx context.Context, convCtx *models.ConversationContext, history *History, input string) (string, error) {
	text := strings.TrimSpace(input)
	switch {
	case !convCtx.OnboardingComplete:
		return f.handleOnboarding(convCtx, text), nil
	case !convCtx.RequirementsCaptured:
		return f.handleRequirements(ctx, convCtx, history, text)
	case !convCtx.SuggestionsSent:
		return f.sendSuggestions(ctx, convCtx, history)
	case !convCtx.FinalClosed:
		return f.handlePreClose(ctx, convCtx, history, text)
	default:
		return f.generate(ctx, convCtx, history, text)
	}
}

// handleOnboarding asks for school name, postcode, email, and phone, one per
// turn, re-prompting on empty input.
func (f *SchoolFlow) handleOnboarding(convCtx *models.ConversationContext, text string) string {
	switch {
	case convCtx.SchoolName == "":
		if text == "" || strings.EqualFold(text, "start") {
			return msgAskSchoolName
		}
		convCtx.SchoolName = text
		return msgAskSchoolPostcode
	case convCtx.SchoolPostcode == "":
		if text == "" {
			return msgAskSchoolPostcode
		}
		convCtx.SchoolPostcode = strings.ToUpper(text)
		return msgAskSchoolEmail
	case convCtx.SchoolEmail == "":
		if text == "" {
			return msgAskSchoolEmail
		}
		convCtx.SchoolEmail = text
		return msgAskSchoolPhone
	default:
		if text == "" {
			return msgAskSchoolPhone
		}
		convCtx.SchoolPhone = text
		convCtx.OnboardingComplete = true
		slog.Info("SchoolFlow onboarding complete", "school", convCtx.SchoolName)
		return msgSchoolDetailsSaved
	}
}

// handleRequirements captures the start date, then the contract length. The
// contract-length answer falls straight through to suggestions so its reply
// already contains the candidate profiles, with no extra user turn.
func (f *SchoolFlow) handleRequirements(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	if convCtx.StartDate == "" {
		if text == "" {
			return msgAskStartDate, nil
		}
		convCtx.StartDate = text
		return msgAskContractLength, nil
	}

	if text == "" {
		return msgAskContractLength, nil
	}
	convCtx.ContractLength = text
	convCtx.RequirementsCaptured = true
	slog.Info("SchoolFlow requirements captured", "startDate", convCtx.StartDate, "contractLength", convCtx.ContractLength)
	return f.sendSuggestions(ctx, convCtx, history)
}

// sendSuggestions asks the completion service for three candidate profiles
// built from the full context dump, then closes the stage.
func (f *SchoolFlow) sendSuggestions(ctx context.Context, convCtx *models.ConversationContext, history *History) (string, error) {
	prompt := "Based on this school's needs:\n" + convCtx.Dump() +
		"\n\nGenerate 3 brief candidate profiles (name + 2-3 bullet points each)."

	profiles, err := f.generate(ctx, convCtx, history, prompt)
	if err != nil {
		slog.Error("SchoolFlow suggestions generation failed", "error", err)
		return "", err
	}

	convCtx.SuggestionsSent = true
	history.ResetStageMessages()

	slog.Info("SchoolFlow suggestions sent", "school", convCtx.SchoolName)
	return fmt.Sprintf(msgSuggestions, strings.TrimSpace(profiles)), nil
}

// precloseRule is one predicate→action entry in the pre-close decision table.
type precloseRule struct {
	name    string
	matches func(lower string) bool
	respond func(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error)
}

func (f *SchoolFlow) precloseRules() []precloseRule {
	return []precloseRule{
		{
			name:    "send-candidate-list",
			matches: containsAny(sendTriggers),
			respond: func(ctx context.Context, convCtx *models.ConversationContext, history *History, _ string) (string, error) {
				return f.sendCandidateList(ctx, convCtx)
			},
		},
		{
			name:    "booking-portal",
			matches: containsAny(bookingTriggers),
			respond: func(ctx context.Context, convCtx *models.ConversationContext, history *History, _ string) (string, error) {
				return f.sendBookingPortal(ctx, convCtx)
			},
		},
		{
			name:    "open-question",
			matches: func(string) bool { return true },
			respond: func(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
				return f.generate(ctx, convCtx, history, text)
			},
		},
	}
}

func (f *SchoolFlow) handlePreClose(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, rule := range f.precloseRules() {
		if rule.matches(lower) {
			slog.Debug("SchoolFlow pre-close rule matched", "rule", rule.name)
			return rule.respond(ctx, convCtx, history, text)
		}
	}
	return "", fmt.Errorf("pre-close rule table exhausted")
}

// containsAny returns a predicate matching utterances containing any of the
// trigger substrings.
func containsAny(triggers []string) func(string) bool {
	return func(lower string) bool {
		for _, trigger := range triggers {
			if strings.Contains(lower, trigger) {
				return true
			}
		}
		return false
	}
}

// sendCandidateList records the shortlist email and closes the conversation.
// The final-closed flag flips only after the send succeeded.
func (f *SchoolFlow) sendCandidateList(ctx context.Context, convCtx *models.ConversationContext) (string, error) {
	reference, err := f.sender.SendCandidateList(ctx, convCtx.SchoolEmail, convCtx.Dump())
	if err != nil {
		slog.Error("SchoolFlow candidate list send failed", "error", err, "to", convCtx.SchoolEmail)
		return "", err
	}

	convCtx.FinalClosed = true
	slog.Info("SchoolFlow candidate list sent", "to", convCtx.SchoolEmail, "reference", reference)
	return fmt.Sprintf(msgCandidateListSent, reference), nil
}

// sendBookingPortal records a booking-request variant of the shortlist email
// and closes the conversation.
func (f *SchoolFlow) sendBookingPortal(ctx context.Context, convCtx *models.ConversationContext) (string, error) {
	summary := fmt.Sprintf("Interview booking requested for: %s on %s", convCtx.SchoolName, convCtx.StartDate)
	reference, err := f.sender.SendCandidateList(ctx, convCtx.SchoolEmail, summary)
	if err != nil {
		slog.Error("SchoolFlow booking portal send failed", "error", err, "to", convCtx.SchoolEmail)
		return "", err
	}

	convCtx.FinalClosed = true
	slog.Info("SchoolFlow booking portal sent", "to", convCtx.SchoolEmail, "reference", reference)
	return fmt.Sprintf(msgBookingPortalSent, reference), nil
}

func (f *SchoolFlow) generate(ctx context.Context, convCtx *models.ConversationContext, history *History, prompt string) (string, error) {
	messages := buildMessages(BuildSystemPrompt(models.UserTypeSchool, convCtx), history, prompt)
	return f.genaiClient.GenerateWithMessages(ctx, messages)
}
