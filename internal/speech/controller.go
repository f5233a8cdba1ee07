// Package speech plays synthesized speech for the "Listen" controls of a
// surface. A Controller owns at most one audio resource at a time.
package speech

import (
	"context"
	"log"
	"sync"
)

const FailureNotice = "Text-to-Speech failed"

type State int

const (
	Idle State = iota
	Loading
	Playing
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// Synthesizer is the text-to-speech endpoint of the backend API.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text, language string) ([]byte, error)
}

// Player turns an audio payload into a running playback.
type Player interface {
	Start(audio []byte) (Playback, error)
}

// Playback is one playing audio resource.
type Playback interface {
	// Done is closed when playback ends, naturally or through Stop.
	Done() <-chan struct{}
	// Stop halts playback immediately and releases the resource. It is
	// safe to call more than once.
	Stop()
}

type Notifier interface {
	Error(message string)
}

// Controller is the playback state machine of one surface:
//
//	Idle -> Loading -> Playing -> Idle
//
// with Playing -> Idle on user stop and Loading -> Idle on synthesis error.
type Controller struct {
	synth    Synthesizer
	player   Player
	notifier Notifier

	mu         sync.Mutex
	state      State
	key        string
	gen        uint64
	cancelLoad context.CancelFunc
	playback   Playback
	onChange   func(state State, key string)
}

func NewController(synth Synthesizer, player Player, notifier Notifier) *Controller {
	return &Controller{
		synth:    synth,
		player:   player,
		notifier: notifier,
	}
}

// OnChange registers a callback for state transitions. It runs outside the
// controller lock.
func (c *Controller) OnChange(fn func(state State, key string)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns the current state and the control it belongs to.
func (c *Controller) State() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.key
}

// Speak toggles the control identified by key. Pressing a playing control
// stops it without synthesizing again. Pressing any other control first
// stops and releases whatever this surface is playing or loading. Speak
// returns once playback has started, failed, or been superseded.
func (c *Controller) Speak(ctx context.Context, key, text, language string) error {
	c.mu.Lock()
	if c.key == key && c.state != Idle {
		if c.state == Playing {
			c.stopLocked()
			c.mu.Unlock()
			c.emit()
			return nil
		}
		// Already loading this control.
		c.mu.Unlock()
		return nil
	}

	c.stopLocked()
	gen := c.gen
	loadCtx, cancel := context.WithCancel(ctx)
	c.state = Loading
	c.key = key
	c.cancelLoad = cancel
	c.mu.Unlock()
	c.emit()

	audio, err := c.synth.SynthesizeSpeech(loadCtx, text, language)
	cancel()

	c.mu.Lock()
	if c.gen != gen {
		// Stopped or replaced while loading.
		c.mu.Unlock()
		return nil
	}

	var pb Playback
	if err == nil {
		pb, err = c.player.Start(audio)
	}
	if err != nil {
		c.state = Idle
		c.key = ""
		c.cancelLoad = nil
		c.mu.Unlock()

		log.Printf("speech: playback for %q failed: %v", key, err)
		if c.notifier != nil {
			c.notifier.Error(FailureNotice)
		}
		c.emit()
		return err
	}

	c.state = Playing
	c.playback = pb
	c.cancelLoad = nil
	c.mu.Unlock()
	c.emit()

	go c.watch(gen, pb)
	return nil
}

// Stop halts any playback and cancels any pending synthesis.
func (c *Controller) Stop() {
	c.mu.Lock()
	active := c.state != Idle
	c.stopLocked()
	c.mu.Unlock()
	if active {
		c.emit()
	}
}

func (c *Controller) watch(gen uint64, pb Playback) {
	<-pb.Done()

	c.mu.Lock()
	if c.gen != gen || c.playback != pb {
		c.mu.Unlock()
		return
	}
	pb.Stop()
	c.playback = nil
	c.state = Idle
	c.key = ""
	c.mu.Unlock()
	c.emit()
}

// stopLocked releases the current resource and invalidates in-flight
// loads and watchers.
func (c *Controller) stopLocked() {
	c.gen++
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	if c.playback != nil {
		c.playback.Stop()
		c.playback = nil
	}
	c.state = Idle
	c.key = ""
}

func (c *Controller) emit() {
	c.mu.Lock()
	fn, state, key := c.onChange, c.state, c.key
	c.mu.Unlock()
	if fn != nil {
		fn(state, key)
	}
}
