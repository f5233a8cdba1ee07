// Package conversation holds the transcript and send state of one surface.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"policymitr-client/internal/models"
)

// Store is the conversation of a single surface. The transcript is
// append-only; at most one send is pending at a time.
type Store struct {
	mu       sync.RWMutex
	messages []models.Message
	pending  bool
	draft    string
	closed   bool
	now      func() time.Time

	onChange func()
}

// NewStore creates an empty conversation. A non-empty greeting is seeded as
// the first assistant message.
func NewStore(greeting string) *Store {
	s := &Store{now: time.Now}
	if greeting != "" {
		s.messages = append(s.messages, s.newMessage(models.RoleAssistant, greeting, false))
	}
	return s
}

// OnChange registers a callback run after every state change, outside the
// lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) newMessage(role, content string, offline bool) models.Message {
	return models.Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		IsOffline: offline,
		CreatedAt: s.now(),
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Begin appends the user's message, marks the store pending and clears the
// draft in one step. It reports false, changing nothing, when a send is
// already pending or the store is closed.
func (s *Store) Begin(query string) (models.Message, bool) {
	s.mu.Lock()
	if s.pending || s.closed {
		s.mu.Unlock()
		return models.Message{}, false
	}
	msg := s.newMessage(models.RoleUser, query, false)
	s.messages = append(s.messages, msg)
	s.pending = true
	s.draft = ""
	s.mu.Unlock()

	s.notify()
	return msg, true
}

// Complete appends the reply to the pending send (if any) and clears
// pending. A closed store drops the reply.
func (s *Store) Complete(reply *models.Message) (models.Message, bool) {
	s.mu.Lock()
	s.pending = false
	if s.closed || reply == nil {
		s.mu.Unlock()
		return models.Message{}, false
	}
	msg := s.newMessage(models.RoleAssistant, reply.Content, reply.IsOffline)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.notify()
	return msg, true
}

// Close discards the conversation. Later completions are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = false
	s.onChange = nil
	s.mu.Unlock()
}

func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Messages returns a copy of the transcript in display order.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Message returns the i-th message of the transcript.
func (s *Store) Message(i int) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.messages) {
		return models.Message{}, false
	}
	return s.messages[i], true
}

// HasUserMessage reports whether the user has sent anything yet.
func (s *Store) HasUserMessage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}

func (s *Store) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *Store) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.draft = text
	s.mu.Unlock()
	s.notify()
}
