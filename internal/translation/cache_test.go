package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubTranslator struct {
	mu      sync.Mutex
	calls   int
	result  string
	err     error
	release chan struct{}
}

func (s *stubTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.result + ":" + targetLanguage, nil
}

func (s *stubTranslator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func TestTranslate_SecondCallServedFromCache(t *testing.T) {
	backend := &stubTranslator{result: "सारांश"}
	c := NewCache(backend, nil)

	first, err := c.Translate(context.Background(), "p1", "Summary", "hi")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	second, err := c.Translate(context.Background(), "p1", "Summary", "hi")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if first != second || first != "सारांश:hi" {
		t.Fatalf("unexpected translations %q %q", first, second)
	}
	if backend.callCount() != 1 {
		t.Fatalf("expected one backend call, got %d", backend.callCount())
	}
}

func TestTranslate_KeyedByDocumentAndLanguage(t *testing.T) {
	backend := &stubTranslator{result: "t"}
	c := NewCache(backend, nil)
	ctx := context.Background()

	c.Translate(ctx, "p1", "Summary", "hi")
	c.Translate(ctx, "p1", "Summary", "mr")
	c.Translate(ctx, "p2", "Summary", "hi")

	if backend.callCount() != 3 {
		t.Fatalf("expected no cross-document or cross-language reuse, got %d calls", backend.callCount())
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 slots, got %d", c.Len())
	}
}

func TestTranslate_NewSourceReplacesSlot(t *testing.T) {
	backend := &stubTranslator{result: "t"}
	c := NewCache(backend, nil)
	ctx := context.Background()

	c.Translate(ctx, "p1", "Old summary", "hi")
	c.Translate(ctx, "p1", "New summary", "hi")

	if backend.callCount() != 2 || c.Len() != 1 {
		t.Fatalf("expected slot replacement, calls=%d len=%d", backend.callCount(), c.Len())
	}
}

func TestTranslate_FailureKeepsPreviousValue(t *testing.T) {
	backend := &stubTranslator{result: "good"}
	notifier := &recordingNotifier{}
	c := NewCache(backend, notifier)
	ctx := context.Background()

	if _, err := c.Translate(ctx, "p1", "Summary v1", "hi"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	backend.mu.Lock()
	backend.err = errors.New("503")
	backend.mu.Unlock()

	if _, err := c.Translate(ctx, "p1", "Summary v2", "hi"); err == nil {
		t.Fatalf("expected error")
	}
	if got, ok := c.Cached("p1", "hi"); !ok || got != "good:hi" {
		t.Fatalf("previous translation must survive a failure, got %q %v", got, ok)
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != FailureNotice {
		t.Fatalf("expected one failure notice, got %v", notifier.messages)
	}
	if c.Translating() {
		t.Fatalf("translating flag must clear after failure")
	}
}

func TestTranslate_ConcurrentMissesShareOneCall(t *testing.T) {
	backend := &stubTranslator{result: "t", release: make(chan struct{})}
	c := NewCache(backend, nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Translate(context.Background(), "p1", "Summary", "hi")
		}(i)
	}

	// Let the goroutines pile up on the in-flight call.
	deadline := time.Now().Add(time.Second)
	for backend.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if !c.Translating() {
		t.Fatalf("expected translating flag while in flight")
	}
	close(backend.release)
	wg.Wait()

	if backend.callCount() != 1 {
		t.Fatalf("expected one shared backend call, got %d", backend.callCount())
	}
	for _, r := range results {
		if r != "t:hi" {
			t.Fatalf("unexpected result %q", r)
		}
	}
}

func TestTranslate_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	backend := &stubTranslator{result: "t", release: make(chan struct{})}
	notifier := &recordingNotifier{}
	c := NewCache(backend, notifier)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Translate(firstCtx, "p1", "Summary", "hi")
		firstErr <- err
	}()
	for backend.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan string, 1)
	go func() {
		v, _ := c.Translate(context.Background(), "p1", "Summary", "hi")
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the first caller to see its own cancellation, got %v", err)
	}
	close(backend.release)

	if got := <-second; got != "t:hi" {
		t.Fatalf("expected the shared call to finish for the second caller, got %q", got)
	}
	if backend.callCount() != 1 {
		t.Fatalf("expected one backend call, got %d", backend.callCount())
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no failure notice, got %v", notifier.messages)
	}
}

func TestReset_DiscardsEntries(t *testing.T) {
	backend := &stubTranslator{result: "t"}
	c := NewCache(backend, nil)
	ctx := context.Background()

	c.Translate(ctx, "p1", "Summary", "hi")
	c.Reset()

	if _, ok := c.Cached("p1", "hi"); ok {
		t.Fatalf("expected empty cache after reset")
	}
	c.Translate(ctx, "p1", "Summary", "hi")
	if backend.callCount() != 2 {
		t.Fatalf("expected a fresh call after reset, got %d", backend.callCount())
	}
}

func TestReset_DuringFlightDropsResult(t *testing.T) {
	backend := &stubTranslator{result: "t", release: make(chan struct{})}
	c := NewCache(backend, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Translate(context.Background(), "p1", "Summary", "hi")
	}()
	for backend.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	c.Reset()
	close(backend.release)
	<-done

	if c.Len() != 0 {
		t.Fatalf("result of a call started before reset must not be cached")
	}
}

func TestTranslate_BlankText(t *testing.T) {
	backend := &stubTranslator{result: "t"}
	c := NewCache(backend, nil)
	if _, err := c.Translate(context.Background(), "p1", "  ", "hi"); err == nil {
		t.Fatalf("expected error for blank text")
	}
	if backend.callCount() != 0 {
		t.Fatalf("blank text must not reach the backend")
	}
}
