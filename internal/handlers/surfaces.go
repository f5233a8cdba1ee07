package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"policymitr-client/internal/middleware"
	"policymitr-client/internal/models"
	"policymitr-client/internal/speech"
	"policymitr-client/internal/surface"
)

// Publisher delivers surface events to the owner's open sockets.
type Publisher interface {
	Publish(userID string, msg models.WSMessage)
}

type SurfaceHandler struct {
	registry  *surface.Registry
	deps      surface.Deps
	events    Publisher
	speakLang string
	transLang string
}

// NewSurfaceHandler mounts surfaces against deps. Notifications and state
// changes of each surface are published to its owner through events.
func NewSurfaceHandler(registry *surface.Registry, deps surface.Deps, events Publisher, speakLang, transLang string) *SurfaceHandler {
	return &SurfaceHandler{
		registry:  registry,
		deps:      deps,
		events:    events,
		speakLang: speakLang,
		transLang: transLang,
	}
}

type createSurfaceRequest struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

type surfaceView struct {
	ID          uuid.UUID               `json:"id"`
	Kind        surface.Kind            `json:"kind"`
	Path        string                  `json:"path"`
	Selection   string                  `json:"selection,omitempty"`
	Scope       string                  `json:"scope"`
	Transcript  models.TranscriptUpdate `json:"transcript"`
	Playback    models.PlaybackUpdate   `json:"playback"`
	Translating bool                    `json:"translating"`
}

func view(s *surface.Surface) surfaceView {
	state, key := s.PlaybackState()
	return surfaceView{
		ID:          s.ID,
		Kind:        s.Kind(),
		Path:        s.Path(),
		Selection:   s.Selection(),
		Scope:       s.Scope().String(),
		Transcript:  s.Snapshot(),
		Playback:    models.PlaybackUpdate{State: state.String(), Key: key},
		Translating: s.Translating(),
	}
}

// eventNotifier turns a surface's toasts into notification events.
type eventNotifier struct {
	events    Publisher
	userID    string
	surfaceID uuid.UUID
}

func (n *eventNotifier) publish(level, message string) {
	n.events.Publish(n.userID, models.WSMessage{
		Type:      models.EventNotification,
		SurfaceID: n.surfaceID,
		Payload:   models.Notification{Level: level, Message: message},
	})
}

func (n *eventNotifier) Error(message string)   { n.publish("error", message) }
func (n *eventNotifier) Success(message string) { n.publish("success", message) }

func (h *SurfaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSurfaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := surface.ConfigFor(surface.Kind(req.Kind))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	userID := middleware.GetUserID(r)
	notifier := &eventNotifier{events: h.events, userID: userID}
	deps := h.deps
	deps.Notifier = notifier

	s := surface.Mount(cfg, deps, req.Path)
	notifier.surfaceID = s.ID
	s.Observe(surface.Observer{
		Transcript: func(u models.TranscriptUpdate) {
			h.events.Publish(userID, models.WSMessage{Type: models.EventTranscript, SurfaceID: s.ID, Payload: u})
		},
		Playback: func(u models.PlaybackUpdate) {
			h.events.Publish(userID, models.WSMessage{Type: models.EventPlayback, SurfaceID: s.ID, Payload: u})
		},
	})
	h.registry.Add(userID, s)

	writeJSON(w, http.StatusCreated, view(s))
}

// load resolves the {id} surface of the requesting user, answering 404
// itself when there is none.
func (h *SurfaceHandler) load(w http.ResponseWriter, r *http.Request) (*surface.Surface, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid surface ID", r))
		return nil, false
	}
	s, err := h.registry.Get(middleware.GetUserID(r), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Surface not found", r))
		return nil, false
	}
	return s, true
}

func (h *SurfaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view(s))
}

func (h *SurfaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid surface ID", r))
		return
	}
	if err := h.registry.Remove(middleware.GetUserID(r), id); err != nil {
		if errors.Is(err, surface.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Surface not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to close surface", r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SurfaceHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.Navigate(req.Path)
	writeJSON(w, http.StatusOK, view(s))
}

func (h *SurfaceHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req struct {
		DocumentID string `json:"document_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.Select(req.DocumentID)
	writeJSON(w, http.StatusOK, view(s))
}

func (h *SurfaceHandler) SetDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.SetDraft(req.Text)
	writeJSON(w, http.StatusOK, map[string]string{"draft": s.Draft()})
}

// Send submits text, or the draft when text is empty. The reply is pushed
// as a transcript event.
func (h *SurfaceHandler) Send(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = s.Draft()
	}
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		return
	}

	if _, accepted := s.SendAsync(r.Context(), text); !accepted {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A message is already pending", r))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"accepted": true, "scope": s.Scope().String()})
}

func (h *SurfaceHandler) ChooseSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid suggestion index", r))
		return
	}

	done, err := s.ChooseSuggestion(r.Context(), index)
	if err != nil {
		if errors.Is(err, surface.ErrNoSuggestion) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Suggestion not available", r))
			return
		}
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", err.Error(), r))
		return
	}
	if done != nil {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"sent": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sent": false, "draft": s.Draft()})
}

type speakRequest struct {
	Key          string `json:"key"`
	Text         string `json:"text"`
	Language     string `json:"language"`
	MessageIndex *int   `json:"message_index"`
}

// Speak toggles a Listen control: a message of the transcript by index, or
// arbitrary text (summary, clause) under a caller-chosen key.
func (h *SurfaceHandler) Speak(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req speakRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lang := req.Language
	if lang == "" {
		lang = h.speakLang
	}

	var err error
	switch {
	case req.MessageIndex != nil:
		err = s.ListenMessage(r.Context(), *req.MessageIndex, lang)
	case req.Key == "" || strings.TrimSpace(req.Text) == "":
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "key and text are required", r))
		return
	default:
		err = s.Listen(r.Context(), req.Key, req.Text, lang)
	}

	switch {
	case errors.Is(err, surface.ErrNoMessage):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Message not found", r))
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, errorResp("TTS_FAILED", speech.FailureNotice, r))
		return
	}

	state, key := s.PlaybackState()
	writeJSON(w, http.StatusOK, models.PlaybackUpdate{State: state.String(), Key: key})
}

func (h *SurfaceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	s.StopPlayback()
	writeJSON(w, http.StatusOK, models.PlaybackUpdate{State: speech.Idle.String()})
}

func (h *SurfaceHandler) Translate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	var req models.TranslateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Text is required", r))
		return
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = h.transLang
	}

	translated, err := s.Translate(r.Context(), req.Text, req.TargetLanguage)
	switch {
	case errors.Is(err, surface.ErrNoTranslations), errors.Is(err, surface.ErrNoDocumentInScope):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	case errors.Is(err, context.Canceled):
		// Client went away.
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, errorResp("TRANSLATION_FAILED", "Translation failed", r))
		return
	}

	writeJSON(w, http.StatusOK, models.TranslateResponse{TranslatedText: translated})
}
