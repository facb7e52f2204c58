package flow

import (
	"context"
	"testing"

	"github.com/openai/openai-go"

	"github.com/smile-education/intake-assistant/internal/models"
)

// mockGenAIClient returns scripted responses in order, repeating the last one.
type mockGenAIClient struct {
	responses []string
	err       error
	calls     int
}

func (m *mockGenAIClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "mock response", nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// mockMailer records sends and returns fixed links.
type mockMailer struct {
	uploadCalls int
	listCalls   int
	lastTo      string
	lastBody    string
	err         error
}

func (m *mockMailer) SendUploadForm(ctx context.Context, to, summary string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploadCalls++
	m.lastTo, m.lastBody = to, summary
	return "https://example.com/upload-form", nil
}

func (m *mockMailer) SendCandidateList(ctx context.Context, to, payload string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.listCalls++
	m.lastTo, m.lastBody = to, payload
	return "https://example.com/portal/shortlists/" + models.RecipientKey(to), nil
}

// recordingStore captures persisted summaries and email records for assertions.
type recordingStore struct {
	records   []models.EmailRecord
	summaries []models.ConversationSummary
	err       error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{}
}

func (s *recordingStore) AddEmailRecord(rec models.EmailRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingStore) GetEmailRecords() ([]models.EmailRecord, error) {
	return append([]models.EmailRecord(nil), s.records...), nil
}

func (s *recordingStore) SaveSummary(summary models.ConversationSummary) error {
	if s.err != nil {
		return s.err
	}
	s.summaries = append(s.summaries, summary)
	return nil
}

func (s *recordingStore) GetSummary(key string) (*models.ConversationSummary, error) {
	for i := len(s.summaries) - 1; i >= 0; i-- {
		if s.summaries[i].Key == key {
			summary := s.summaries[i]
			return &summary, nil
		}
	}
	return nil, models.ErrSummaryNotFound
}

func (s *recordingStore) Close() error { return nil }

// respond mirrors the session turn loop: user message in, controller, then
// assistant message out. Fails the test on controller error.
func respond(t *testing.T, ctrl Controller, convCtx *models.ConversationContext, history *History, input string) string {
	t.Helper()
	history.AddUserMessage(input)
	reply, err := ctrl.Respond(context.Background(), convCtx, history, input)
	if err != nil {
		t.Fatalf("Respond(%q) failed: %v", input, err)
	}
	history.AddAssistantMessage(reply)
	return reply
}
