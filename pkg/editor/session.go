package editor

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/layout"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
	"github.com/matzehuels/erdraw/pkg/measure"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// Notifier receives the events a session produces: [TableMoved] after a
// drag and [SaveLayout] after a reset. Delivery is fire-and-forget; errors
// are logged by the session and never reach the caller that caused the event.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, m Message) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, m Message) error { return f(ctx, m) }

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the session logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithNotifier registers the event receiver.
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithStore persists positions after every change, keyed by the source path.
func WithStore(st layoutfile.Store) Option { return func(s *Session) { s.store = st } }

// WithSource sets the diagram's source file. It names the layout key and
// the PNG export path.
func WithSource(path string) Option { return func(s *Session) { s.source = path } }

// WithMeasurer sets the text measurer used for table widths. Defaults to
// a fixed 0.6 advance.
func WithMeasurer(m measure.TextMeasurer) Option { return func(s *Session) { s.measurer = m } }

// WithLayoutOptions passes options to the auto-layout engine.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(s *Session) { s.layoutOpts = append(s.layoutOpts, opts...) }
}

// WithSceneOptions sets the options used to build frames.
func WithSceneOptions(o scene.Options) Option { return func(s *Session) { s.sceneOpts = o } }

type dragState struct {
	idx    int
	offset erd.Point
}

// Session is the editor's state: the diagram being edited plus the
// viewport and any drag in progress. All methods are safe for concurrent
// use.
type Session struct {
	mu sync.Mutex
	d  *erd.Diagram

	view          Viewport
	width, height float64
	drag          *dragState
	panning       bool
	panFrom       erd.Point

	source     string
	store      layoutfile.Store
	rev        uint64
	saveMu     sync.Mutex
	savedRev   uint64
	notifier   Notifier
	logger     *log.Logger
	measurer   measure.TextMeasurer
	layoutOpts []layout.Option
	sceneOpts  scene.Options
}

// New starts a session on a copy of d. Table widths are measured and, if
// any table lacks a position, the unplaced tables are laid out below the
// placed ones.
func New(d *erd.Diagram, opts ...Option) *Session {
	s := &Session{
		d:        d.Clone(),
		view:     Identity,
		logger:   log.Default(),
		measurer: measure.FixedMeasurer{CharWidth: 0.6},
	}
	for _, opt := range opts {
		opt(s)
	}

	measure.ComputeWidths(s.d, s.measurer)
	if !s.d.AllPlaced() {
		layout.AutoLayout(s.d, append(s.layoutOpts, layout.OnlyUnplaced())...)
		s.logger.Debug("placed unpositioned tables", "tables", len(s.d.Tables))
	}
	return s
}

// Source returns the source path the session was created with.
func (s *Session) Source() string { return s.source }

// Diagram returns a copy of the current diagram.
func (s *Session) Diagram() *erd.Diagram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Clone()
}

// Scene builds the current frame.
func (s *Session) Scene() *scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scene.Build(s.d, s.sceneOpts)
}

// Viewport returns the current view transform.
func (s *Session) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// =============================================================================
// Viewport
// =============================================================================

// FitToView records the canvas size and centres the whole diagram in it.
// The viewport is left unchanged for an empty diagram or a non-positive
// canvas.
func (s *Session) FitToView(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w > 0 && h > 0 {
		s.width, s.height = w, h
	}
	s.fit()
}

func (s *Session) fit() {
	b, ok := s.d.Bounds()
	if !ok {
		return
	}
	s.view.Fit(b, s.width, s.height)
}

// Zoom applies one wheel step around the canvas point (mx, my).
func (s *Session) Zoom(mx, my, deltaY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Zoom(mx, my, deltaY)
}

// Pan shifts the view by a screen-space delta.
func (s *Session) Pan(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Pan(dx, dy)
}

// ScreenToWorld converts a canvas-relative point to world coordinates.
func (s *Session) ScreenToWorld(x, y float64) erd.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.ScreenToWorld(erd.Point{X: x, Y: y})
}

// HitTest returns the topmost table containing the world point (x, y).
func (s *Session) HitTest(x, y float64) (erd.TableID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.hit(erd.Point{X: x, Y: y})
	if i < 0 {
		return erd.TableID{}, false
	}
	return s.d.Tables[i].ID, true
}

func (s *Session) hit(p erd.Point) int {
	for i := len(s.d.Tables) - 1; i >= 0; i-- {
		if s.d.Tables[i].Rect().Contains(p) {
			return i
		}
	}
	return -1
}

// =============================================================================
// Pointer interaction
// =============================================================================

// PointerDown starts dragging the table under the canvas point, or panning
// when there is none. It reports whether a table was grabbed.
func (s *Session) PointerDown(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	world := s.view.ScreenToWorld(erd.Point{X: x, Y: y})
	if i := s.hit(world); i >= 0 {
		pos := s.d.Tables[i].Pos()
		s.drag = &dragState{idx: i, offset: erd.Point{X: world.X - pos.X, Y: world.Y - pos.Y}}
		return true
	}
	s.panning = true
	s.panFrom = erd.Point{X: x, Y: y}
	return false
}

// PointerMove updates the drag or pan in progress.
func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.drag != nil:
		world := s.view.ScreenToWorld(erd.Point{X: x, Y: y})
		s.d.Tables[s.drag.idx].SetPosition(world.X-s.drag.offset.X, world.Y-s.drag.offset.Y)
	case s.panning:
		s.view.Pan(x-s.panFrom.X, y-s.panFrom.Y)
		s.panFrom = erd.Point{X: x, Y: y}
	}
}

// PointerUp ends the interaction. A finished drag persists positions and
// emits [TableMoved].
func (s *Session) PointerUp(ctx context.Context) {
	s.mu.Lock()
	if s.drag == nil {
		s.panning = false
		s.mu.Unlock()
		return
	}
	t := &s.d.Tables[s.drag.idx]
	s.drag = nil
	pos := t.Pos()
	msg := TableMoved{TableID: t.ID.FullName(), X: pos.X, Y: pos.Y}
	snap := s.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.notify(ctx, msg)
}

// =============================================================================
// Mutations
// =============================================================================

// MoveTable places the table named "schema.name" at (x, y), persists all
// positions and emits [TableMoved].
func (s *Session) MoveTable(ctx context.Context, id string, x, y float64) error {
	if err := errors.ValidateCoordinate(x, y); err != nil {
		return err
	}
	s.mu.Lock()
	t := s.table(id)
	if t == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeTableNotFound, "table %s not found", id)
	}
	t.SetPosition(x, y)
	snap := s.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.notify(ctx, TableMoved{TableID: id, X: x, Y: y})
	return nil
}

// ResetLayout discards every position, re-runs auto-layout over the whole
// diagram, persists the result and emits [SaveLayout].
func (s *Session) ResetLayout(ctx context.Context) {
	s.mu.Lock()
	s.d.ClearPositions()
	layout.AutoLayout(s.d, s.layoutOpts...)
	s.fit()
	snap := s.snapshot()
	msg := SaveLayout{Tables: s.d.Positions()}
	s.mu.Unlock()

	s.logger.Info("reset layout", "tables", len(msg.Tables))
	s.persist(ctx, snap)
	s.notify(ctx, msg)
}

// Handle applies a message received from the front end. Position updates
// naming unknown tables are skipped and logged at debug level. For
// [ExportPNG] the written path is returned.
func (s *Session) Handle(ctx context.Context, m Message) (string, error) {
	switch m := m.(type) {
	case TableMoved:
		if err := errors.ValidateCoordinate(m.X, m.Y); err != nil {
			return "", err
		}
		s.apply(ctx, map[string]erd.Point{m.TableID: {X: m.X, Y: m.Y}})
		return "", nil
	case SaveLayout:
		for _, p := range m.Tables {
			if err := errors.ValidateCoordinate(p.X, p.Y); err != nil {
				return "", err
			}
		}
		s.apply(ctx, m.Tables)
		return "", nil
	case ExportPNG:
		return s.ExportPNG(m.DataURL)
	}
	return "", errors.New(errors.ErrCodeInvalidMessage, "unsupported message %T", m)
}

func (s *Session) apply(ctx context.Context, ps map[string]erd.Point) {
	s.mu.Lock()
	for id, p := range ps {
		t := s.table(id)
		if t == nil {
			s.logger.Debug("unknown table", "id", id)
			continue
		}
		t.SetPosition(p.X, p.Y)
	}
	snap := s.snapshot()
	s.mu.Unlock()
	s.persist(ctx, snap)
}

// table returns the first table named id. Callers hold s.mu.
func (s *Session) table(id string) *erd.Table {
	for i := range s.d.Tables {
		if s.d.Tables[i].ID.FullName() == id {
			return &s.d.Tables[i]
		}
	}
	return nil
}

// pendingSave is a snapshot tagged with the revision it was taken at.
type pendingSave struct {
	f   *layoutfile.File
	rev uint64
}

// snapshot collects positions for persistence. Callers hold s.mu.
func (s *Session) snapshot() pendingSave {
	if s.store == nil {
		return pendingSave{}
	}
	s.rev++
	return pendingSave{f: layoutfile.Snapshot(s.d, filepath.Base(s.source)), rev: s.rev}
}

// persist writes p unless a newer snapshot has already been stored. Saves
// run one at a time so the store always ends on the latest revision.
func (s *Session) persist(ctx context.Context, p pendingSave) {
	if p.f == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if p.rev <= s.savedRev {
		s.logger.Debug("skipped stale layout", "source", s.source, "rev", p.rev)
		return
	}
	if err := s.store.Save(ctx, s.source, p.f); err != nil {
		s.logger.Error("save layout failed", "source", s.source, "err", err)
		return
	}
	s.savedRev = p.rev
	s.logger.Debug("saved layout", "source", s.source, "tables", len(p.f.Tables))
}

func (s *Session) notify(ctx context.Context, m Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, m); err != nil {
		s.logger.Warn("notify failed", "type", m.Type(), "err", err)
	}
}
