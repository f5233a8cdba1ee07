// Package surface binds a conversation, the assistant, speech playback and
// translations into one chat-capable surface. The floating widget, the chat
// page and the in-document tab are the same component with different
// configuration.
package surface

import "fmt"

type Kind string

const (
	Widget      Kind = "widget"
	Page        Kind = "page"
	DocumentTab Kind = "document"
)

const (
	widgetGreeting = "Hi! I'm Mitr 🤖, your AI policy assistant. Ask me anything about government policies!"
	pageApology    = "Error connecting to AI. Make sure the backend is running."
)

type Config struct {
	Kind     Kind
	Greeting string
	Apology  string

	Suggestions []string
	// SuggestUntilUserMessage keeps suggestions visible until the user has
	// sent something; otherwise they show only on an empty transcript.
	SuggestUntilUserMessage bool
	// AutoSendSuggestion sends a chosen suggestion right away instead of
	// only filling the input.
	AutoSendSuggestion bool
	// Translations gives the surface a translation cache.
	Translations bool
}

var configs = map[Kind]Config{
	Widget: {
		Kind:     Widget,
		Greeting: widgetGreeting,
		Suggestions: []string{
			"What is the purpose of this policy?",
			"Who benefits from this scheme?",
			"What documents are needed to apply?",
			"Explain the eligibility criteria",
		},
		SuggestUntilUserMessage: true,
		AutoSendSuggestion:      true,
	},
	Page: {
		Kind:    Page,
		Apology: pageApology,
		Suggestions: []string{
			"What is PM Awas Yojana?",
			"Explain Beti Bachao Beti Padhao",
			"How to apply for MGNREGA?",
			"What schemes are for farmers?",
		},
	},
	DocumentTab: {
		Kind: DocumentTab,
		Suggestions: []string{
			"Key benefits?",
			"Eligibility criteria?",
			"Filing deadline?",
			"Documentation required?",
		},
		Translations: true,
	},
}

// ConfigFor returns the built-in configuration of a surface kind.
func ConfigFor(kind Kind) (Config, error) {
	cfg, ok := configs[kind]
	if !ok {
		return Config{}, fmt.Errorf("unknown surface kind %q", kind)
	}
	cfg.Suggestions = append([]string(nil), cfg.Suggestions...)
	return cfg, nil
}
