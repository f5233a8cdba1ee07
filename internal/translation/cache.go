// Package translation memoizes translations for the lifetime of a document
// viewer.
package translation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const FailureNotice = "Translation failed"

// Translator is the translate endpoint of the backend API.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Error(message string)
}

type key struct {
	documentID string
	language   string
}

type entry struct {
	source     string
	translated string
}

// Cache keeps one translated slot per (document, language). The viewer only
// ever translates the summary, so one slot per pair is enough; a different
// source text for the same pair replaces the slot.
type Cache struct {
	backend  Translator
	notifier Notifier

	mu          sync.Mutex
	entries     map[key]entry
	generation  uint64
	translating int

	group singleflight.Group
}

func NewCache(backend Translator, notifier Notifier) *Cache {
	return &Cache{
		backend:  backend,
		notifier: notifier,
		entries:  make(map[key]entry),
	}
}

// Translate returns the translation of text, calling the backend only on a
// miss. Concurrent misses for the same input share one call. On failure the
// user is notified and any earlier translation stays cached.
func (c *Cache) Translate(ctx context.Context, documentID, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}
	k := key{documentID: documentID, language: targetLanguage}

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && e.source == text {
		c.mu.Unlock()
		return e.translated, nil
	}
	gen := c.generation
	c.translating++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.translating--
		c.mu.Unlock()
	}()

	flightKey := fmt.Sprintf("%d\x00%s\x00%s\x00%s", gen, documentID, targetLanguage, text)
	// The shared call outlives any one caller; each caller can still give up
	// on its own context.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		translated, err := c.backend.Translate(flightCtx, text, targetLanguage)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		// A reset while the call was in flight means the viewer moved on.
		if c.generation == gen {
			c.entries[k] = entry{source: text, translated: translated}
		}
		c.mu.Unlock()
		return translated, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := res.Err; err != nil {
		log.Printf("translation: document %s to %s failed: %v", documentID, targetLanguage, err)
		if c.notifier != nil {
			c.notifier.Error(FailureNotice)
		}
		return "", err
	}
	return res.Val.(string), nil
}

// Cached returns the stored translation for a document and language.
func (c *Cache) Cached(documentID, targetLanguage string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key{documentID: documentID, language: targetLanguage}]
	return e.translated, ok
}

// Translating reports whether a translation is in flight.
func (c *Cache) Translating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.translating > 0
}

// Reset drops every entry. Called when the viewer switches documents or
// unmounts.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[key]entry)
	c.generation++
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
