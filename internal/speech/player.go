package speech

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// ExecPlayer plays audio through an external command such as mpg123 or
// ffplay. The payload is written to a temporary file that lives exactly as
// long as the playback.
type ExecPlayer struct {
	Command string
	Args    []string
	TempDir string
}

func NewExecPlayer(command string, args ...string) *ExecPlayer {
	return &ExecPlayer{Command: command, Args: args}
}

func (p *ExecPlayer) Start(audio []byte) (Playback, error) {
	if len(audio) == 0 {
		return nil, errors.New("empty audio payload")
	}
	path, err := exec.LookPath(p.Command)
	if err != nil {
		return nil, fmt.Errorf("audio player %q not found: %w", p.Command, err)
	}

	f, err := os.CreateTemp(p.TempDir, "mitr-speech-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}
	f.Close()

	args := append(append([]string{}, p.Args...), f.Name())
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to start audio player: %w", err)
	}

	pb := &execPlayback{cmd: cmd, file: f.Name(), done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type execPlayback struct {
	cmd  *exec.Cmd
	file string
	done chan struct{}
	once sync.Once
}

func (p *execPlayback) Done() <-chan struct{} { return p.done }

func (p *execPlayback) Stop() {
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			p.cmd.Process.Kill()
			<-p.done
		}
		os.Remove(p.file)
	})
}
