package models

import "github.com/google/uuid"

// WebSocket event types pushed by the bridge hub.
const (
	EventTranscript   = "transcript"
	EventPlayback     = "playback"
	EventNotification = "notification"
)

type WSMessage struct {
	Type      string      `json:"type"`
	SurfaceID uuid.UUID   `json:"surface_id"`
	Payload   interface{} `json:"payload"`
}

type TranscriptUpdate struct {
	Messages    []Message `json:"messages"`
	Pending     bool      `json:"pending"`
	Draft       string    `json:"draft"`
	Suggestions []string  `json:"suggestions"`
}

type PlaybackUpdate struct {
	State string `json:"state"` // "idle" | "loading" | "playing"
	Key   string `json:"key"`
}

type Notification struct {
	Level   string `json:"level"` // "error" | "success"
	Message string `json:"message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
