// Package flow implements the scripted conversation flows for the intake assistant.
//
// This file implements the candidate registration flow: onboarding, document
// Q&A with the hybrid rule/LLM readiness decision, post-send Q&A, and closing.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/mailer"
	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/store"
)

// completionPhrases are the fast-path triggers meaning "the user is finished".
// Matched against the lower-cased, trimmed utterance, before any LLM call.
var completionPhrases = map[string]struct{}{
	"i'm done":          {},
	"done":              {},
	"no more":           {},
	"no more questions": {},
	"no questions":      {},
	"thanks":            {},
	"thank you":         {},
}

// questionWords are the interrogative words that mark an utterance as a
// question when it appears as the first word.
var questionWords = map[string]struct{}{
	"what": {}, "how": {}, "when": {}, "where": {}, "why": {}, "who": {},
	"is": {}, "are": {}, "can": {}, "could": {}, "would": {}, "should": {},
}

// Candidate flow reply templates
const (
	msgAskName     = "Please tell me your full name."
	msgAskEmail    = "What's your email address?"
	msgAskPhone    = "What's the best phone number to reach you on?"
	msgAskPostcode = "What's your postcode?"

	msgDocumentChecklist = "✅ Thanks! Your personal details are saved.\n\n" +
		"📑 To complete your registration, you'll need:\n" +
		"- Proof of Identity (e.g. passport or driver's licence)\n" +
		"- Proof of Address (bank statement or utility bill)\n" +
		"- Qualification Certificates (e.g. diploma)\n" +
		"- DBS Check (required for working with children)\n\n" +
		"We will send an email to %s with a secure upload form. " +
		"We can handle the DBS check ourselves once you upload the rest.\n\n" +
		"Do you have any questions about any of these, or shall I send it now?"

	msgUploadFormSent = "Email Sent!\n\n" +
		"I've just sent the secure upload form to %s. You can also open it here: %s\n\n" +
		"Once you've completed and returned it, we'll review your documents and move " +
		"forward with the onboarding process.\n\n" +
		"Any other questions?"

	msgGoodbyeSuffix = "\n\nThank you for choosing Smile Education. Goodbye!"
)

// CandidateFlow walks a job-seeking candidate through registration.
type CandidateFlow struct {
	genaiClient genai.ClientInterface
	sender      mailer.Service
	store       store.Store
}

// NewCandidateFlow creates a candidate flow controller.
func NewCandidateFlow(client genai.ClientInterface, sender mailer.Service, st store.Store) *CandidateFlow {
	return &CandidateFlow{genaiClient: client, sender: sender, store: st}
}

// Respond processes one candidate utterance. The active stage is derived
// from the phase flags alone.
func (f *CandidateFlow) Respond(ctx context.Context, convCtx *models.ConversationContext, history *History, input string) (string, error) {
	text := strings.TrimSpace(input)
	switch {
	case !convCtx.OnboardingComplete:
		return f.handleOnboarding(convCtx, text), nil
	case !convCtx.UploadEmailSent:
		return f.handleDocumentStage(ctx, convCtx, history, text)
	default:
		return f.handleFollowUp(ctx, convCtx, history, text)
	}
}

// handleOnboarding asks for name, email, phone, and postcode, one field per
// turn. Empty input re-prompts the pending question instead of filling the
// field; the postcode answer completes onboarding and shows the checklist.
func (f *CandidateFlow) handleOnboarding(convCtx *models.ConversationContext, text string) string {
	switch {
	case convCtx.Name == "":
		if text == "" || strings.EqualFold(text, "start") {
			return msgAskName
		}
		convCtx.Name = text
		return msgAskEmail
	case convCtx.Email == "":
		if text == "" {
			return msgAskEmail
		}
		convCtx.Email = text
		return msgAskPhone
	case convCtx.Phone == "":
		if text == "" {
			return msgAskPhone
		}
		convCtx.Phone = text
		return msgAskPostcode
	default:
		if text == "" {
			return msgAskPostcode
		}
		convCtx.Postcode = strings.ToUpper(text)
		convCtx.OnboardingComplete = true
		slog.Info("CandidateFlow onboarding complete", "postcode", convCtx.Postcode)
		return fmt.Sprintf(msgDocumentChecklist, convCtx.Email)
	}
}

// documentRule is one predicate→action entry in the document-stage decision
// table. Rules are evaluated top to bottom; the first match wins.
type documentRule struct {
	name    string
	matches func(text string) bool
	respond func(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error)
}

func (f *CandidateFlow) documentRules() []documentRule {
	return []documentRule{
		{
			name:    "completion-phrase",
			matches: isCompletionPhrase,
			respond: func(ctx context.Context, convCtx *models.ConversationContext, history *History, _ string) (string, error) {
				return f.sendUploadForm(ctx, convCtx, history)
			},
		},
		{
			name:    "question",
			matches: looksLikeQuestion,
			respond: f.answerDocumentQuestion,
		},
		{
			name:    "classify-or-guide",
			matches: func(string) bool { return true },
			respond: f.classifyOrGuide,
		},
	}
}

func (f *CandidateFlow) handleDocumentStage(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	for _, rule := range f.documentRules() {
		if rule.matches(text) {
			slog.Debug("CandidateFlow document stage rule matched", "rule", rule.name)
			return rule.respond(ctx, convCtx, history, text)
		}
	}
	return "", fmt.Errorf("document stage rule table exhausted")
}

// isCompletionPhrase reports whether the utterance matches one of the
// fast-path completion triggers. Trailing punctuation is ignored so that
// "thanks?" still takes the fast path ahead of question detection.
func isCompletionPhrase(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimSpace(strings.TrimRight(normalized, "?!."))
	_, ok := completionPhrases[normalized]
	return ok
}

// looksLikeQuestion reports whether the utterance ends with a question mark
// or starts with an interrogative word.
func looksLikeQuestion(text string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	_, ok := questionWords[fields[0]]
	return ok
}

func (f *CandidateFlow) answerDocumentQuestion(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	prompt := fmt.Sprintf(
		"A candidate asked about documents:\n%q\n\nPlease explain clearly what happens after they upload the documents.",
		text,
	)
	return f.generate(ctx, convCtx, history, prompt)
}

// classifyOrGuide asks the completion service whether the stage's accumulated
// user messages mean the candidate is done. Only a reply starting with "yes"
// advances the stage; anything else, including malformed replies, falls back
// to generic guidance.
func (f *CandidateFlow) classifyOrGuide(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	classifyPrompt := "Based on the document-collection conversation so far:\n" +
		strings.Join(history.StageUserMessages(), "\n") +
		"\n\nHas the user indicated they are done and ready to upload? Reply 'Yes' or 'No' only."

	verdict, err := f.generate(ctx, convCtx, history, classifyPrompt)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(verdict)), "yes") {
		slog.Debug("CandidateFlow classifier verdict: ready", "verdict", verdict)
		return f.sendUploadForm(ctx, convCtx, history)
	}
	slog.Debug("CandidateFlow classifier verdict: not ready", "verdict", verdict)

	guidePrompt := fmt.Sprintf(
		"A candidate said:\n%q\n\nProvide guidance about these required documents.",
		text,
	)
	return f.generate(ctx, convCtx, history, guidePrompt)
}

// sendUploadForm records the upload-form email and closes the document stage.
// The two phase flags flip together, and only after the send succeeded, so a
// failed send leaves the stage unchanged.
func (f *CandidateFlow) sendUploadForm(ctx context.Context, convCtx *models.ConversationContext, history *History) (string, error) {
	link, err := f.sender.SendUploadForm(ctx, convCtx.Email, convCtx.Dump())
	if err != nil {
		slog.Error("CandidateFlow upload form send failed", "error", err, "to", convCtx.Email)
		return "", err
	}

	convCtx.DocumentsChecked = true
	convCtx.UploadEmailSent = true
	history.ResetStageMessages()

	slog.Info("CandidateFlow upload form sent", "to", convCtx.Email)
	return fmt.Sprintf(msgUploadFormSent, convCtx.Email, link), nil
}

// handleFollowUp answers post-send questions until the candidate signals
// completion, then closes with an LLM summary persisted to the store.
func (f *CandidateFlow) handleFollowUp(ctx context.Context, convCtx *models.ConversationContext, history *History, text string) (string, error) {
	if !isCompletionPhrase(text) {
		return f.generate(ctx, convCtx, history, text)
	}

	closing, err := f.generate(ctx, convCtx, history, "Write a warm closing message summarising next steps.")
	if err != nil {
		return "", err
	}

	summary := models.ConversationSummary{
		Key:            models.RecipientKey(convCtx.Email),
		ContextDump:    convCtx.Dump(),
		ClosingMessage: closing,
		CreatedAt:      time.Now(),
	}
	if err := f.store.SaveSummary(summary); err != nil {
		slog.Error("CandidateFlow failed to persist closing summary", "error", err, "key", summary.Key)
		return "", fmt.Errorf("failed to persist closing summary: %w", err)
	}

	slog.Info("CandidateFlow conversation closed", "key", summary.Key)
	return closing + msgGoodbyeSuffix, nil
}

func (f *CandidateFlow) generate(ctx context.Context, convCtx *models.ConversationContext, history *History, prompt string) (string, error) {
	messages := buildMessages(BuildSystemPrompt(models.UserTypeCandidate, convCtx), history, prompt)
	return f.genaiClient.GenerateWithMessages(ctx, messages)
}
