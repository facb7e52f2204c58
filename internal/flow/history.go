// Package flow implements the scripted conversation flows for the intake assistant.
package flow

import "time"

// Message role constants
const (
	// RoleUser marks a message written by the user.
	RoleUser = "user"
	// RoleAssistant marks a message written by the assistant.
	RoleAssistant = "assistant"
)

// DefaultHistoryLimit is the number of messages kept in the rolling buffer.
const DefaultHistoryLimit = 20

// Message represents a single message in the conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the bounded rolling message log for one conversation, plus a
// stage-scoped log of user messages used by the readiness classifier. The
// rolling log evicts oldest-first once the limit is reached; the stage log
// is cleared whenever a data-collection stage closes.
type History struct {
	limit             int
	messages          []Message
	stageUserMessages []string
}

// NewHistory creates a history buffer trimmed to the given message limit.
// Non-positive limits fall back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// AddUserMessage appends a user message to both the rolling buffer and the
// current stage log.
func (h *History) AddUserMessage(text string) {
	h.messages = append(h.messages, Message{Role: RoleUser, Content: text, Timestamp: time.Now()})
	h.stageUserMessages = append(h.stageUserMessages, text)
	h.trim()
}

// AddAssistantMessage appends an assistant message to the rolling buffer.
func (h *History) AddAssistantMessage(text string) {
	h.messages = append(h.messages, Message{Role: RoleAssistant, Content: text, Timestamp: time.Now()})
	h.trim()
}

func (h *History) trim() {
	if len(h.messages) > h.limit {
		h.messages = append([]Message(nil), h.messages[len(h.messages)-h.limit:]...)
	}
}

// Messages returns a copy of the rolling buffer, oldest first.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// StageUserMessages returns a copy of the user messages recorded since the
// current data-collection stage started.
func (h *History) StageUserMessages() []string {
	out := make([]string, len(h.stageUserMessages))
	copy(out, h.stageUserMessages)
	return out
}

// ResetStageMessages clears the stage-scoped user message log.
func (h *History) ResetStageMessages() {
	h.stageUserMessages = nil
}

// Snapshot captures the full history state so a failed turn can be rolled back.
type Snapshot struct {
	messages          []Message
	stageUserMessages []string
}

// Snapshot returns a deep copy of the current history state.
func (h *History) Snapshot() Snapshot {
	return Snapshot{
		messages:          append([]Message(nil), h.messages...),
		stageUserMessages: append([]string(nil), h.stageUserMessages...),
	}
}

// Restore resets the history to a previously captured snapshot.
func (h *History) Restore(s Snapshot) {
	h.messages = append([]Message(nil), s.messages...)
	h.stageUserMessages = append([]string(nil), s.stageUserMessages...)
}
