package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a load runs and reports how long it
// took. It only draws to a terminal.
type Spinner struct {
	out     io.Writer
	message string
	start   time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	stopped chan struct{}
	mu      sync.Mutex
	width   int // runes drawn by the last frame
}

// newSpinner creates a spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that stops when ctx ends.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// Start begins the animation. The elapsed time is shown once the operation
// has run for a second.
func (s *Spinner) Start() {
	s.start = time.Now()
	if !isTerminal(s.out) {
		s.out = io.Discard
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	line := s.message
	if d := time.Since(s.start); d >= time.Second {
		line += fmt.Sprintf(" (%.0fs)", d.Seconds())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
	s.width = len([]rune(line)) + 2
}

// Stop ends the animation, clears the line and returns the time since Start.
// It is safe to call more than once.
func (s *Spinner) Stop() time.Duration {
	s.once.Do(func() {
		s.cancel()
		if !s.start.IsZero() {
			<-s.stopped
		}
	})
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Cancelled reports whether the spinner was stopped or its parent context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
