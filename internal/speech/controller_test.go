package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubSynth struct {
	mu      sync.Mutex
	calls   int
	texts   []string
	err     error
	release chan struct{}
}

func (s *stubSynth) SynthesizeSpeech(ctx context.Context, text, language string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.texts = append(s.texts, text)
	release := s.release
	err := s.err
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte("audio:" + text), nil
}

func (s *stubSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakePlayback struct {
	done    chan struct{}
	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		select {
		case <-p.done:
		default:
			close(p.done)
		}
	})
}

// finish simulates the natural end of the audio.
func (p *fakePlayback) finish() { close(p.done) }

func (p *fakePlayback) released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type fakePlayer struct {
	mu        sync.Mutex
	playbacks []*fakePlayback
	err       error
}

func (p *fakePlayer) Start(audio []byte) (Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	pb := &fakePlayback{done: make(chan struct{})}
	p.playbacks = append(p.playbacks, pb)
	return pb, nil
}

func (p *fakePlayer) last() *fakePlayback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playbacks[len(p.playbacks)-1]
}

func (p *fakePlayer) playing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pb := range p.playbacks {
		if !pb.released() {
			n++
		}
	}
	return n
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

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s, _ := c.State(); s == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	s, _ := c.State()
	t.Fatalf("expected state %s, got %s", want, s)
}

func TestSpeak_PlaysAndCompletes(t *testing.T) {
	synth := &stubSynth{}
	player := &fakePlayer{}
	c := NewController(synth, player, nil)

	var mu sync.Mutex
	var transitions []State
	c.OnChange(func(s State, key string) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	})

	if err := c.Speak(context.Background(), "summary", "Policy summary", "en"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if s, key := c.State(); s != Playing || key != "summary" {
		t.Fatalf("expected playing summary, got %s %q", s, key)
	}

	player.last().finish()
	waitForState(t, c, Idle)
	if !player.last().released() {
		t.Fatalf("resource must be released on completion")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{Loading, Playing, Idle}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, transitions)
		}
	}
}

func TestSpeak_SameControlTogglesOff(t *testing.T) {
	synth := &stubSynth{}
	player := &fakePlayer{}
	c := NewController(synth, player, nil)
	ctx := context.Background()

	c.Speak(ctx, "summary", "text", "en")
	c.Speak(ctx, "summary", "text", "en")

	if s, _ := c.State(); s != Idle {
		t.Fatalf("expected idle after toggle, got %s", s)
	}
	if synth.callCount() != 1 {
		t.Fatalf("toggle off must not synthesize again, got %d calls", synth.callCount())
	}
	if !player.last().released() {
		t.Fatalf("toggle off must release the resource")
	}
}

func TestSpeak_OtherControlReplacesPlayback(t *testing.T) {
	synth := &stubSynth{}
	player := &fakePlayer{}
	c := NewController(synth, player, nil)
	ctx := context.Background()

	c.Speak(ctx, "summary", "summary text", "en")
	first := player.last()
	c.Speak(ctx, "clause:1", "clause text", "en")

	if !first.released() {
		t.Fatalf("previous playback must be released before the next starts")
	}
	if player.playing() != 1 {
		t.Fatalf("expected exactly one live playback, got %d", player.playing())
	}
	if s, key := c.State(); s != Playing || key != "clause:1" {
		t.Fatalf("expected clause playing, got %s %q", s, key)
	}

	// The old playback ending must not disturb the new one.
	waitForState(t, c, Playing)
}

func TestSpeak_SynthesisFailure(t *testing.T) {
	synth := &stubSynth{err: errors.New("tts down")}
	player := &fakePlayer{}
	notifier := &recordingNotifier{}
	c := NewController(synth, player, notifier)

	if err := c.Speak(context.Background(), "summary", "text", "en"); err == nil {
		t.Fatalf("expected error")
	}
	if s, _ := c.State(); s != Idle {
		t.Fatalf("expected idle after failure, got %s", s)
	}
	if len(player.playbacks) != 0 {
		t.Fatalf("no resource may be allocated on failure")
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != FailureNotice {
		t.Fatalf("expected failure notice, got %v", notifier.messages)
	}
}

func TestSpeak_PlayerFailure(t *testing.T) {
	synth := &stubSynth{}
	player := &fakePlayer{err: errors.New("no audio device")}
	notifier := &recordingNotifier{}
	c := NewController(synth, player, notifier)

	if err := c.Speak(context.Background(), "summary", "text", "en"); err == nil {
		t.Fatalf("expected error")
	}
	if s, _ := c.State(); s != Idle {
		t.Fatalf("expected idle, got %s", s)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notice, got %v", notifier.messages)
	}
}

func TestSpeak_ReplaceWhileLoading(t *testing.T) {
	synth := &stubSynth{release: make(chan struct{})}
	player := &fakePlayer{}
	notifier := &recordingNotifier{}
	c := NewController(synth, player, notifier)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.Speak(context.Background(), "summary", "slow", "en")
	}()
	waitForState(t, c, Loading)

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- c.Speak(context.Background(), "clause:2", "fast", "en")
	}()

	if err := <-firstDone; err != nil {
		t.Fatalf("superseded load should return quietly, got %v", err)
	}
	close(synth.release)
	if err := <-secondDone; err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}

	if s, key := c.State(); s != Playing || key != "clause:2" {
		t.Fatalf("expected clause:2 playing, got %s %q", s, key)
	}
	if len(player.playbacks) != 1 {
		t.Fatalf("superseded load must not allocate a resource, got %d", len(player.playbacks))
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("superseded load is not a failure, got %v", notifier.messages)
	}
}

func TestStop(t *testing.T) {
	synth := &stubSynth{}
	player := &fakePlayer{}
	c := NewController(synth, player, nil)

	c.Speak(context.Background(), "msg:1", "text", "en")
	c.Stop()

	if s, _ := c.State(); s != Idle {
		t.Fatalf("expected idle after stop, got %s", s)
	}
	if !player.last().released() {
		t.Fatalf("stop must release synchronously")
	}

	// Stopping an idle controller is harmless.
	c.Stop()
}

func TestStateString(t *testing.T) {
	tests := map[State]string{Idle: "idle", Loading: "loading", Playing: "playing"}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("Expected %q, got %q", want, s.String())
		}
	}
}
