// Package assistant runs chat requests for a surface: one question in
// flight at a time, the answer (or an apology) appended to the transcript.
package assistant

import (
	"context"
	"log"
	"strings"

	"policymitr-client/internal/conversation"
	"policymitr-client/internal/models"
	"policymitr-client/internal/scope"
)

const DefaultApology = "Sorry, I encountered an error. Please try again."

// ChatBackend is the chat endpoint of the backend API.
type ChatBackend interface {
	Chat(ctx context.Context, query, documentID string) (*models.ChatResponse, error)
}

type Coordinator struct {
	backend ChatBackend
	store   *conversation.Store
	apology string
	surface string
}

func NewCoordinator(backend ChatBackend, store *conversation.Store, surface, apology string) *Coordinator {
	if apology == "" {
		apology = DefaultApology
	}
	return &Coordinator{
		backend: backend,
		store:   store,
		apology: apology,
		surface: surface,
	}
}

// Send asks query within sc and blocks until the reply is in the transcript.
// Blank queries and sends made while another is pending are ignored and
// report false. Failures never surface raw errors: the user sees the
// apology and can send again.
func (c *Coordinator) Send(ctx context.Context, query string, sc scope.Scope) (*models.Message, bool) {
	query, ok := c.begin(query)
	if !ok {
		return nil, false
	}
	return c.exchange(ctx, query, sc)
}

// SendAsync does the optimistic append before returning and runs the
// request in the background. The returned channel closes once the reply
// has been recorded. The request outlives ctx cancellation: leaving a
// surface abandons the reply, it does not cancel the call.
func (c *Coordinator) SendAsync(ctx context.Context, query string, sc scope.Scope) (<-chan struct{}, bool) {
	query, ok := c.begin(query)
	if !ok {
		return nil, false
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.exchange(context.WithoutCancel(ctx), query, sc)
	}()
	return done, true
}

func (c *Coordinator) begin(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	if _, ok := c.store.Begin(query); !ok {
		return "", false
	}
	return query, true
}

func (c *Coordinator) exchange(ctx context.Context, query string, sc scope.Scope) (*models.Message, bool) {
	var reply *models.Message
	defer func() {
		// Only reached with a nil reply when ask panicked; pending must
		// still be released.
		if reply == nil {
			c.store.Complete(nil)
		}
	}()

	reply = c.ask(ctx, query, sc)
	msg, ok := c.store.Complete(reply)
	if !ok {
		log.Printf("assistant[%s]: surface closed, dropping reply", c.surface)
		return nil, false
	}
	return &msg, true
}

func (c *Coordinator) ask(ctx context.Context, query string, sc scope.Scope) *models.Message {
	resp, err := c.backend.Chat(ctx, query, string(sc))
	if err != nil {
		log.Printf("assistant[%s]: chat failed (scope=%s): %v", c.surface, sc, err)
		return &models.Message{Role: models.RoleAssistant, Content: c.apology}
	}
	// A marker-only offline answer is still a degraded success.
	if strings.TrimSpace(resp.Answer) == "" && !resp.Offline {
		log.Printf("assistant[%s]: empty answer (scope=%s)", c.surface, sc)
		return &models.Message{Role: models.RoleAssistant, Content: c.apology}
	}
	return &models.Message{
		Role:      models.RoleAssistant,
		Content:   resp.Answer,
		IsOffline: resp.Offline,
	}
}
