package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"policymitr-client/internal/assistant"
	"policymitr-client/internal/conversation"
	"policymitr-client/internal/models"
	"policymitr-client/internal/scope"
	"policymitr-client/internal/speech"
	"policymitr-client/internal/translation"
)

var (
	ErrUnmounted         = errors.New("surface is unmounted")
	ErrNoSuggestion      = errors.New("no such suggestion")
	ErrNoMessage         = errors.New("no such message")
	ErrNoTranslations    = errors.New("surface does not translate")
	ErrNoDocumentInScope = errors.New("no document in scope")
)

// Backend is the slice of the backend API a surface talks to.
type Backend interface {
	assistant.ChatBackend
	translation.Translator
	speech.Synthesizer
}

// Notifier shows transient messages (toasts) to the user.
type Notifier interface {
	Error(message string)
	Success(message string)
}

type Deps struct {
	Backend  Backend
	Player   speech.Player
	Notifier Notifier
	Resolver *scope.Resolver
}

// Observer receives state pushed by a surface.
type Observer struct {
	Transcript func(models.TranscriptUpdate)
	Playback   func(models.PlaybackUpdate)
}

type Surface struct {
	ID  uuid.UUID
	cfg Config

	store        *conversation.Store
	coordinator  *assistant.Coordinator
	resolver     *scope.Resolver
	playback     *speech.Controller
	translations *translation.Cache

	mu        sync.RWMutex
	path      string
	selection string
	mounted   bool
	observer  Observer
}

// Mount creates a surface at the given navigation path. Its conversation
// lives until Unmount.
func Mount(cfg Config, deps Deps, path string) *Surface {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = scope.NewResolver()
	}

	store := conversation.NewStore(cfg.Greeting)
	s := &Surface{
		ID:          uuid.New(),
		cfg:         cfg,
		store:       store,
		coordinator: assistant.NewCoordinator(deps.Backend, store, string(cfg.Kind), cfg.Apology),
		resolver:    resolver,
		playback:    speech.NewController(deps.Backend, deps.Player, deps.Notifier),
		path:        path,
		mounted:     true,
	}
	if cfg.Translations {
		s.translations = translation.NewCache(deps.Backend, deps.Notifier)
	}

	store.OnChange(s.pushTranscript)
	s.playback.OnChange(func(state speech.State, key string) {
		s.mu.RLock()
		fn := s.observer.Playback
		s.mu.RUnlock()
		if fn != nil {
			fn(models.PlaybackUpdate{State: state.String(), Key: key})
		}
	})
	return s
}

// Unmount discards the conversation, stops playback and drops cached
// translations. A send still in flight completes against the backend but
// its reply is thrown away.
func (s *Surface) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.observer = Observer{}
	s.mu.Unlock()

	s.store.Close()
	s.playback.Stop()
	if s.translations != nil {
		s.translations.Reset()
	}
}

func (s *Surface) Mounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

func (s *Surface) Kind() Kind { return s.cfg.Kind }

// Observe replaces the surface's observer.
func (s *Surface) Observe(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

func (s *Surface) pushTranscript() {
	s.mu.RLock()
	fn := s.observer.Transcript
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Snapshot())
	}
}

// Navigate moves the surface to a new path. Leaving a document drops its
// translations and stops its audio.
func (s *Surface) Navigate(path string) {
	s.mu.Lock()
	before := s.resolver.FromPath(s.path)
	s.path = path
	s.mu.Unlock()

	if s.resolver.FromPath(path) != before && s.cfg.Kind == DocumentTab {
		s.playback.Stop()
		if s.translations != nil {
			s.translations.Reset()
		}
	}
}

func (s *Surface) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Select sets the explicit document selection (the page's dropdown). An
// empty id goes back to general chat.
func (s *Surface) Select(documentID string) {
	s.mu.Lock()
	s.selection = strings.TrimSpace(documentID)
	s.mu.Unlock()
}

func (s *Surface) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Scope resolves the document the next message is about.
func (s *Surface) Scope() scope.Scope {
	s.mu.RLock()
	path, selection := s.path, s.selection
	s.mu.RUnlock()
	return s.resolver.Resolve(path, selection)
}

func (s *Surface) SetDraft(text string) { s.store.SetDraft(text) }

func (s *Surface) Draft() string { return s.store.Draft() }

func (s *Surface) Pending() bool { return s.store.Pending() }

func (s *Surface) Messages() []models.Message { return s.store.Messages() }

// Send asks text and waits for the reply.
func (s *Surface) Send(ctx context.Context, text string) (*models.Message, bool) {
	return s.coordinator.Send(ctx, text, s.Scope())
}

// SendAsync asks text without waiting; the reply arrives through the
// observer.
func (s *Surface) SendAsync(ctx context.Context, text string) (<-chan struct{}, bool) {
	return s.coordinator.SendAsync(ctx, text, s.Scope())
}

// Submit sends the current draft.
func (s *Surface) Submit(ctx context.Context) (*models.Message, bool) {
	return s.Send(ctx, s.store.Draft())
}

func (s *Surface) SubmitAsync(ctx context.Context) (<-chan struct{}, bool) {
	return s.SendAsync(ctx, s.store.Draft())
}

// Suggestions returns the example questions currently on display.
func (s *Surface) Suggestions() []string {
	if !s.suggestionsVisible() {
		return nil
	}
	return append([]string(nil), s.cfg.Suggestions...)
}

func (s *Surface) suggestionsVisible() bool {
	if s.cfg.SuggestUntilUserMessage {
		return !s.store.HasUserMessage()
	}
	return s.store.Len() == 0
}

// ChooseSuggestion acts on the i-th visible suggestion: surfaces configured
// to auto-send ask it right away (the returned channel closes when the reply
// is in), the others only put it into the input.
func (s *Surface) ChooseSuggestion(ctx context.Context, i int) (<-chan struct{}, error) {
	if !s.Mounted() {
		return nil, ErrUnmounted
	}
	visible := s.Suggestions()
	if i < 0 || i >= len(visible) {
		return nil, ErrNoSuggestion
	}

	if !s.cfg.AutoSendSuggestion {
		s.store.SetDraft(visible[i])
		return nil, nil
	}
	done, ok := s.SendAsync(ctx, visible[i])
	if !ok {
		return nil, nil
	}
	return done, nil
}

// MessageText returns the content of the i-th message, for copying.
func (s *Surface) MessageText(i int) (string, error) {
	msg, ok := s.store.Message(i)
	if !ok {
		return "", ErrNoMessage
	}
	return msg.Content, nil
}

// Listen toggles speech for one control of this surface.
func (s *Surface) Listen(ctx context.Context, key, text, language string) error {
	if !s.Mounted() {
		return ErrUnmounted
	}
	return s.playback.Speak(ctx, key, text, language)
}

// ListenMessage toggles speech for the i-th message of the transcript.
func (s *Surface) ListenMessage(ctx context.Context, i int, language string) error {
	msg, ok := s.store.Message(i)
	if !ok {
		return ErrNoMessage
	}
	return s.Listen(ctx, MessageKey(msg.ID), msg.Content, language)
}

func (s *Surface) StopPlayback() { s.playback.Stop() }

func (s *Surface) PlaybackState() (speech.State, string) { return s.playback.State() }

// Translate translates text of the document in scope.
func (s *Surface) Translate(ctx context.Context, text, language string) (string, error) {
	if s.translations == nil {
		return "", ErrNoTranslations
	}
	sc := s.Scope()
	if sc.IsGeneral() {
		return "", ErrNoDocumentInScope
	}
	return s.translations.Translate(ctx, string(sc), text, language)
}

// Translating reports whether a translation is in flight.
func (s *Surface) Translating() bool {
	return s.translations != nil && s.translations.Translating()
}

// Snapshot is the render state of the transcript area.
func (s *Surface) Snapshot() models.TranscriptUpdate {
	return models.TranscriptUpdate{
		Messages:    s.store.Messages(),
		Pending:     s.store.Pending(),
		Draft:       s.store.Draft(),
		Suggestions: s.Suggestions(),
	}
}

// Control keys for Listen. Each visible "Listen" button has its own key so
// pressing it again stops it.
func MessageKey(id uuid.UUID) string { return "msg:" + id.String() }

// SummaryKey is "summary" for the original text and "summary:<lang>" for a
// translation of it.
func SummaryKey(language string) string {
	if language == "" {
		return "summary"
	}
	return "summary:" + language
}

func ClauseKey(n int) string { return fmt.Sprintf("clause:%d", n) }
