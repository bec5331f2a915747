package session

import (
	"github.com/google/uuid"

	"github.com/tiancaiamao/nanocode/pkg/llm"
)

// Session is the in-memory conversation history of one REPL run.
// Messages are append-only; a conversation reset constructs a fresh
// Session rather than mutating this one. A single goroutine owns the
// session for its whole lifetime.
type Session struct {
	id       string
	model    string
	system   string
	profile  Profile
	messages []llm.Message
}

// NewSession creates a session seeded with the system prompt.
func NewSession(model, systemPrompt string, profile Profile) *Session {
	s := &Session{
		id:      uuid.NewString(),
		model:   model,
		system:  systemPrompt,
		profile: profile,
	}
	s.messages = append(s.messages, llm.NewSystemMessage(systemPrompt))
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Model returns the model the session talks to.
func (s *Session) Model() string { return s.model }

// SystemPrompt returns the prompt the session was seeded with.
func (s *Session) SystemPrompt() string { return s.system }

// Profile returns the active capability profile.
func (s *Session) Profile() Profile { return s.profile }

// Append adds a message to the history.
func (s *Session) Append(msg llm.Message) {
	s.messages = append(s.messages, msg)
}

// Messages returns the history in order. The slice is shared with the
// session; callers must not mutate it.
func (s *Session) Messages() []llm.Message {
	return s.messages
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	return len(s.messages)
}
