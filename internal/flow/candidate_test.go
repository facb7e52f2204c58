package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smile-education/intake-assistant/internal/models"
)

func newCandidateFixture(client *mockGenAIClient, sender *mockMailer) (*CandidateFlow, *models.ConversationContext, *History) {
	convCtx := models.NewConversationContext()
	convCtx.UserType = models.UserTypeCandidate
	return NewCandidateFlow(client, sender, nil), convCtx, NewHistory(DefaultHistoryLimit)
}

func onboardedCandidate() *models.ConversationContext {
	convCtx := models.NewConversationContext()
	convCtx.UserType = models.UserTypeCandidate
	convCtx.Name = "Jane Doe"
	convCtx.Email = "jane@x.com"
	convCtx.Phone = "0123456789"
	convCtx.Postcode = "AB1 2CD"
	convCtx.OnboardingComplete = true
	return convCtx
}

func TestCandidateOnboarding_FullSequence(t *testing.T) {
	client := &mockGenAIClient{}
	sender := &mockMailer{}
	f, convCtx, h := newCandidateFixture(client, sender)

	replies := []string{
		respond(t, f, convCtx, h, "start"),
		respond(t, f, convCtx, h, "Jane Doe"),
		respond(t, f, convCtx, h, "jane@x.com"),
		respond(t, f, convCtx, h, "0123456789"),
		respond(t, f, convCtx, h, "ab1 2cd"),
	}

	if replies[0] != msgAskName {
		t.Errorf("expected name question first, got %q", replies[0])
	}
	if replies[1] != msgAskEmail || replies[2] != msgAskPhone || replies[3] != msgAskPostcode {
		t.Errorf("unexpected onboarding sequence: %q", replies[1:4])
	}
	if !strings.Contains(replies[4], "Proof of Identity") || !strings.Contains(replies[4], "DBS Check") {
		t.Errorf("fifth reply should contain the document checklist, got %q", replies[4])
	}
	if !strings.Contains(replies[4], "jane@x.com") {
		t.Errorf("checklist should name the contact email, got %q", replies[4])
	}

	if convCtx.Postcode != "AB1 2CD" {
		t.Errorf("postcode should be stored upper-cased, got %q", convCtx.Postcode)
	}
	if !convCtx.OnboardingComplete {
		t.Error("onboarding-complete flag should be set")
	}
	if client.calls != 0 {
		t.Errorf("onboarding must not call the completion service, got %d calls", client.calls)
	}
}

func TestCandidateOnboarding_EmptyInputReprompts(t *testing.T) {
	f, convCtx, h := newCandidateFixture(&mockGenAIClient{}, &mockMailer{})

	respond(t, f, convCtx, h, "start")
	respond(t, f, convCtx, h, "Jane Doe")

	// Whitespace must not be accepted as an email address.
	if reply := respond(t, f, convCtx, h, "   "); reply != msgAskEmail {
		t.Errorf("expected email re-prompt, got %q", reply)
	}
	if convCtx.Email != "" {
		t.Errorf("empty input must not fill the email field, got %q", convCtx.Email)
	}

	if reply := respond(t, f, convCtx, h, "jane@x.com"); reply != msgAskPhone {
		t.Errorf("expected phone question after email, got %q", reply)
	}
}

func TestCandidateOnboarding_OutOfTurnAnswerFillsNextField(t *testing.T) {
	f, convCtx, h := newCandidateFixture(&mockGenAIClient{}, &mockMailer{})

	respond(t, f, convCtx, h, "start")
	// The user answers with their email while the name is still pending:
	// the value lands in the next expected field, never further ahead.
	respond(t, f, convCtx, h, "jane@x.com")

	if convCtx.Name != "jane@x.com" {
		t.Errorf("expected answer stored into the pending name field, got name=%q", convCtx.Name)
	}
	if convCtx.Email != "" {
		t.Errorf("email field must remain unset, got %q", convCtx.Email)
	}
}

func TestDocumentStage_FastPath(t *testing.T) {
	client := &mockGenAIClient{}
	sender := &mockMailer{}
	f := NewCandidateFlow(client, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "thanks")

	if client.calls != 0 {
		t.Errorf("fast path must not call the completion service, got %d calls", client.calls)
	}
	if sender.uploadCalls != 1 {
		t.Fatalf("expected one upload form send, got %d", sender.uploadCalls)
	}
	if sender.lastTo != "jane@x.com" {
		t.Errorf("upload form sent to %q, want jane@x.com", sender.lastTo)
	}
	if !strings.HasPrefix(reply, "Email Sent!") {
		t.Errorf("expected the Email Sent template, got %q", reply)
	}
	if !convCtx.DocumentsChecked || !convCtx.UploadEmailSent {
		t.Error("both document flags should flip together after a successful send")
	}
	if len(h.StageUserMessages()) != 0 {
		t.Error("stage log should be cleared when the stage closes")
	}
}

func TestDocumentStage_FastPathBeatsQuestionDetection(t *testing.T) {
	client := &mockGenAIClient{}
	sender := &mockMailer{}
	f := NewCandidateFlow(client, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	// Both a completion phrase and a question-marked utterance: the fast
	// path is evaluated first and wins.
	respond(t, f, convCtx, h, "thanks?")

	if client.calls != 0 {
		t.Errorf("fast path should win over question detection, got %d completion calls", client.calls)
	}
	if sender.uploadCalls != 1 {
		t.Errorf("expected upload form send, got %d", sender.uploadCalls)
	}
}

func TestDocumentStage_QuestionPath(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"After uploading, we verify everything."}}
	sender := &mockMailer{}
	f := NewCandidateFlow(client, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "What happens after I upload?")

	if client.calls != 1 {
		t.Errorf("question path should make exactly one completion call, got %d", client.calls)
	}
	if sender.uploadCalls != 0 {
		t.Error("question path must not trigger the upload send")
	}
	if reply != "After uploading, we verify everything." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if convCtx.UploadEmailSent || convCtx.DocumentsChecked {
		t.Error("question path must not advance the stage")
	}
}

func TestDocumentStage_ClassifierAdvancesOnYes(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"Yes, they are ready."}}
	sender := &mockMailer{}
	f := NewCandidateFlow(client, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "everything is in order on my end")

	if client.calls != 1 {
		t.Errorf("expected one classifier call, got %d", client.calls)
	}
	if sender.uploadCalls != 1 {
		t.Error("a yes verdict should trigger the upload send")
	}
	if !strings.HasPrefix(reply, "Email Sent!") {
		t.Errorf("expected the Email Sent template, got %q", reply)
	}
}

func TestDocumentStage_ClassifierSafeDefault(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"maybe", "Here is some guidance."}}
	sender := &mockMailer{}
	f := NewCandidateFlow(client, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "still sorting through my paperwork")

	if sender.uploadCalls != 0 {
		t.Error("a non-yes verdict must not advance the stage")
	}
	if convCtx.UploadEmailSent {
		t.Error("upload-email-sent flag must stay false on an ambiguous verdict")
	}
	if reply != "Here is some guidance." {
		t.Errorf("expected fallback guidance reply, got %q", reply)
	}
	if client.calls != 2 {
		t.Errorf("expected classifier call plus guidance call, got %d", client.calls)
	}
}

func TestDocumentStage_SendFailureLeavesStateUntouched(t *testing.T) {
	sender := &mockMailer{err: errors.New("smtp down")}
	f := NewCandidateFlow(&mockGenAIClient{}, sender, nil)
	convCtx := onboardedCandidate()
	h := NewHistory(DefaultHistoryLimit)

	h.AddUserMessage("done")
	_, err := f.Respond(context.Background(), convCtx, h, "done")
	if err == nil {
		t.Fatal("expected error when the emitter fails")
	}
	if convCtx.DocumentsChecked || convCtx.UploadEmailSent {
		t.Error("flags must not flip when the gating send failed")
	}
	if len(h.StageUserMessages()) == 0 {
		t.Error("stage log must not be cleared when the send failed")
	}
}

func TestDocumentRules_PriorityOrder(t *testing.T) {
	f := NewCandidateFlow(&mockGenAIClient{}, &mockMailer{}, nil)
	rules := f.documentRules()

	want := []string{"completion-phrase", "question", "classify-or-guide"}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, name := range want {
		if rules[i].name != name {
			t.Errorf("rule %d: expected %q, got %q", i, name, rules[i].name)
		}
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"What happens next?", true},
		{"how long does it take", true},
		{"Can I upload later", true},
		{"my passport is ready", false},
		{"tell me more?", true},
		{"", false},
	}
	for _, c := range cases {
		if got := looksLikeQuestion(c.in); got != c.want {
			t.Errorf("looksLikeQuestion(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCandidate_PostSendFollowUp(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"We review within two days."}}
	f := NewCandidateFlow(client, &mockMailer{}, nil)
	convCtx := onboardedCandidate()
	convCtx.DocumentsChecked = true
	convCtx.UploadEmailSent = true
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "how long until I hear back")

	if reply != "We review within two days." {
		t.Errorf("expected open Q&A reply, got %q", reply)
	}
	if convCtx.FinalClosed {
		t.Error("follow-up questions must not close the conversation")
	}
}

func TestCandidate_FinalClosingPersistsSummary(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"Warm closing."}}
	st := newRecordingStore()
	f := NewCandidateFlow(client, &mockMailer{}, st)
	convCtx := onboardedCandidate()
	convCtx.DocumentsChecked = true
	convCtx.UploadEmailSent = true
	h := NewHistory(DefaultHistoryLimit)

	reply := respond(t, f, convCtx, h, "thanks")

	if !strings.HasPrefix(reply, "Warm closing.") || !strings.Contains(reply, "Goodbye!") {
		t.Errorf("expected closing plus goodbye suffix, got %q", reply)
	}
	if len(st.summaries) != 1 {
		t.Fatalf("expected one persisted summary, got %d", len(st.summaries))
	}
	saved := st.summaries[0]
	if saved.Key != "jane@x.com" {
		t.Errorf("expected summary keyed by sanitized email, got %q", saved.Key)
	}
	if saved.ClosingMessage != "Warm closing." {
		t.Errorf("unexpected closing message: %q", saved.ClosingMessage)
	}
	if !strings.Contains(saved.ContextDump, "postcode: AB1 2CD") {
		t.Errorf("summary should embed the context dump, got %q", saved.ContextDump)
	}
}

func TestCandidate_FlagsAreMonotonic(t *testing.T) {
	client := &mockGenAIClient{responses: []string{"answer"}}
	f := NewCandidateFlow(client, &mockMailer{}, newRecordingStore())
	convCtx := models.NewConversationContext()
	convCtx.UserType = models.UserTypeCandidate
	h := NewHistory(DefaultHistoryLimit)

	inputs := []string{"start", "Jane Doe", "jane@x.com", "0123456789", "ab1 2cd", "done", "what now?", "thanks"}
	var sawOnboarding, sawUpload bool
	for _, input := range inputs {
		respond(t, f, convCtx, h, input)
		if sawOnboarding && !convCtx.OnboardingComplete {
			t.Fatalf("onboarding-complete flag reverted after %q", input)
		}
		if sawUpload && !convCtx.UploadEmailSent {
			t.Fatalf("upload-email-sent flag reverted after %q", input)
		}
		sawOnboarding = sawOnboarding || convCtx.OnboardingComplete
		sawUpload = sawUpload || convCtx.UploadEmailSent
	}
	if !sawOnboarding || !sawUpload {
		t.Error("scenario should have set both flags")
	}
}
