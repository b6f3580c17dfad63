package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/erdraw/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on stderr until stopped or until its
// context ends. The message can change while it runs.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	w       io.Writer
	message string
	width   int // widest line drawn so far, for clearing
}

// newSpinner creates a spinner that stops when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		w:       os.Stderr,
		message: message,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the status text shown next to the frame.
func (s *Spinner) SetMessage(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = fmt.Sprintf(format, args...)
}

// Message returns the current status text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.message
	pad := ""
	if n := len(line); n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	} else {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(s.message), pad)
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
	})
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
	s.width = 0
}

// StopWithError stops the spinner and prints message as a failure.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended the spinner.
func (s *Spinner) Cancelled() bool {
	select {
	case <-s.done:
		return false
	default:
		return s.ctx.Err() != nil
	}
}

// =============================================================================
// Pipeline progress
// =============================================================================

// stageReporter turns pipeline events into spinner messages and forwards
// every event to the hooks that were registered before it.
type stageReporter struct {
	spin *Spinner
	next observability.PipelineHooks

	mu     sync.Mutex
	tables int
	rels   int
}

// reportStages routes pipeline events to s until the returned function is
// called. rels is shown alongside the table count when known.
func reportStages(s *Spinner, rels int) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(&stageReporter{spin: s, next: prev, rels: rels})
	return func() { observability.SetPipelineHooks(prev) }
}

func (r *stageReporter) counts() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := fmt.Sprintf("%d %s", r.tables, pluralize(r.tables, "table", "tables"))
	if r.rels > 0 {
		s += fmt.Sprintf(", %d %s", r.rels, pluralize(r.rels, "relationship", "relationships"))
	}
	return s
}

func (r *stageReporter) OnLoadStart(ctx context.Context, source string) {
	r.spin.SetMessage("Reading %s...", filepath.Base(source))
	r.next.OnLoadStart(ctx, source)
}

func (r *stageReporter) OnLoadComplete(ctx context.Context, source string, tableCount int, d time.Duration, err error) {
	r.mu.Lock()
	r.tables = tableCount
	r.mu.Unlock()
	r.next.OnLoadComplete(ctx, source, tableCount, d, err)
}

func (r *stageReporter) OnLayoutStart(ctx context.Context, tableCount int, onlyUnplaced bool) {
	r.mu.Lock()
	if r.tables == 0 {
		r.tables = tableCount
	}
	r.mu.Unlock()
	if onlyUnplaced {
		r.spin.SetMessage("Placing unpositioned tables (%s)...", r.counts())
	} else {
		r.spin.SetMessage("Placing %s...", r.counts())
	}
	r.next.OnLayoutStart(ctx, tableCount, onlyUnplaced)
}

func (r *stageReporter) OnLayoutComplete(ctx context.Context, placed int, d time.Duration, err error) {
	r.next.OnLayoutComplete(ctx, placed, d, err)
}

func (r *stageReporter) OnRenderStart(ctx context.Context, formats []string) {
	r.spin.SetMessage("Rendering %s as %s...", r.counts(), strings.Join(formats, ", "))
	r.next.OnRenderStart(ctx, formats)
}

func (r *stageReporter) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	r.next.OnRenderComplete(ctx, formats, d, err)
}

var _ observability.PipelineHooks = (*stageReporter)(nil)
