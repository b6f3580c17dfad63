package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/erd"
	erdio "github.com/matzehuels/erdraw/pkg/io"
	"github.com/matzehuels/erdraw/pkg/layout"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
	"github.com/matzehuels/erdraw/pkg/measure"
	"github.com/matzehuels/erdraw/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its cache, layout store and logger. It
// doesn't store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  layoutfile.Store
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Saved positions are read from files beside each input; set Store to change that.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	store, _ := layoutfile.NewFileStore("")
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	d, restored, err := r.load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.TableCount = len(d.Tables)
	result.Stats.RelationshipCount = len(d.Relationships)
	result.Stats.Restored = restored

	r.Logger.Info("loaded diagram",
		"tables", len(d.Tables),
		"relationships", len(d.Relationships),
		"restored", restored,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	placed, layoutHit, err := r.LayoutWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Diagram = placed
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Placed = unplaced(d, opts)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"placed", result.Stats.Placed,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.render(ctx, placed, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.DiagramHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Load
// =============================================================================

// Load reads the input diagram and applies its saved positions, unless
// opts.AutoLayout is set.
func (r *Runner) Load(ctx context.Context, opts Options) (*erd.Diagram, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	d, _, err := r.load(ctx, opts)
	return d, err
}

func (r *Runner) load(ctx context.Context, opts Options) (d *erd.Diagram, restored int, err error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Input)
	start := time.Now()
	defer func() {
		n := 0
		if d != nil {
			n = len(d.Tables)
		}
		hooks.OnLoadComplete(ctx, opts.Input, n, time.Since(start), err)
	}()

	d, err = erdio.Import(opts.Input)
	if err != nil {
		return nil, 0, err
	}
	if opts.AutoLayout {
		d.ClearPositions()
		return d, 0, nil
	}

	f, err := r.readLayout(ctx, opts)
	switch {
	case stderrors.Is(err, layoutfile.ErrNotFound):
		opts.Logger.Debug("no saved layout", "input", opts.Input)
		return d, 0, nil
	case err != nil:
		return nil, 0, err
	}
	restored = layoutfile.Apply(d, f)
	opts.Logger.Debug("applied saved layout", "tables", restored, "entries", len(f.Tables))
	return d, restored, nil
}

func (r *Runner) readLayout(ctx context.Context, opts Options) (*layoutfile.File, error) {
	if opts.LayoutPath != "" {
		return layoutfile.Read(opts.LayoutPath)
	}
	if r.Store == nil {
		return nil, layoutfile.ErrNotFound
	}
	return r.Store.Load(ctx, opts.Input)
}

// SaveLayout writes the positions of d to opts.LayoutPath, or to the runner's
// store keyed by opts.Input. It returns a description of where the layout went.
func (r *Runner) SaveLayout(ctx context.Context, d *erd.Diagram, opts Options) (string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return "", err
	}
	f := layoutfile.Snapshot(d, sourceName(opts.Input))
	if opts.LayoutPath != "" {
		return opts.LayoutPath, layoutfile.Write(opts.LayoutPath, f)
	}
	if r.Store == nil {
		return "", fmt.Errorf("no layout store configured")
	}
	if err := r.Store.Save(ctx, opts.Input, f); err != nil {
		return "", err
	}
	if fs, ok := r.Store.(*layoutfile.FileStore); ok {
		return fs.PathFor(opts.Input), nil
	}
	return opts.Input, nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo measures a copy of d and places every table that lacks
// a position. It returns the placed copy and whether positions came from the
// cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, d *erd.Diagram, opts Options) (*erd.Diagram, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	work := d.Clone()
	if opts.AutoLayout {
		work.ClearPositions()
	}
	if err := measureDiagram(work, opts); err != nil {
		return nil, false, err
	}
	if work.AllPlaced() {
		return work, false, nil
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(work.Tables), !opts.AutoLayout)
	start := time.Now()

	// Compute cache key from the measured, partly placed diagram
	cacheKey := r.Keyer.LayoutKey(diagramHash(work, ""), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, ok := r.cachedLayout(ctx, cacheKey, work); ok {
			hooks.OnLayoutComplete(ctx, 0, time.Since(start), nil)
			return cached, true, nil
		}
	}

	n := countUnplaced(work)
	layout.AutoLayout(work, append(opts.LayoutOptions(), layout.OnlyUnplaced())...)
	hooks.OnLayoutComplete(ctx, n, time.Since(start), nil)

	// Cache the result as a layout file
	var buf bytes.Buffer
	if err := layoutfile.Encode(&buf, layoutfile.Snapshot(work, sourceName(opts.Input))); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", buf.Len())
		}
	}

	return work, false, nil
}

func (r *Runner) cachedLayout(ctx context.Context, key string, work *erd.Diagram) (*erd.Diagram, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false
	}
	f, err := layoutfile.Decode(bytes.NewReader(data))
	if err != nil {
		r.Logger.Debug("discarding cached layout", "err", err)
		return nil, false
	}
	cand := work.Clone()
	layoutfile.Apply(cand, f)
	if !cand.AllPlaced() {
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return cand, true
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, d *erd.Diagram, opts Options) (*erd.Diagram, error) {
	placed, _, err := r.LayoutWithCacheInfo(ctx, d, opts)
	return placed, err
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	artifacts, _, hit, err := r.render(ctx, d, opts)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, string, bool, error) {
	hash := diagramHash(d, opts.measurerKey())

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, hash, true, nil // All artifacts from cache
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, d, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, hash, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return stderrors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// =============================================================================
// Helpers
// =============================================================================

func measureDiagram(d *erd.Diagram, opts Options) error {
	m, release, err := opts.NewMeasurer()
	if err != nil {
		return err
	}
	defer release()
	measure.ComputeWidths(d, m)
	return nil
}

// diagramHash hashes the serialized diagram, which includes positions but
// not widths, together with salt.
func diagramHash(d *erd.Diagram, salt string) string {
	data, _ := json.Marshal(d)
	return cache.Hash(append(data, salt...))
}

func countUnplaced(d *erd.Diagram) int {
	n := 0
	for i := range d.Tables {
		if !d.Tables[i].HasPosition() {
			n++
		}
	}
	return n
}

// sourceName is the source recorded in layout file headers.
func sourceName(input string) string { return filepath.Base(input) }

// unplaced is the number of tables the layout stage had to place.
func unplaced(d *erd.Diagram, opts Options) int {
	if opts.AutoLayout {
		return len(d.Tables)
	}
	return countUnplaced(d)
}
