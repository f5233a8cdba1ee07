package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a surface transcript. Messages are immutable once
// appended.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	IsOffline bool      `json:"is_offline,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the payload sent to the backend chat endpoint. A nil
// PolicyID asks a general question.
type ChatRequest struct {
	Query    string  `json:"query"`
	PolicyID *string `json:"policy_id"`
}

// ChatResponse is the backend's answer. Offline is set when the answer came
// from the keyword-search fallback instead of full inference.
type ChatResponse struct {
	Answer  string `json:"answer"`
	Offline bool   `json:"offline,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}
