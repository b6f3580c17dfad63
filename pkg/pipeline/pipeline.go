// Package pipeline provides the load → layout → render pipeline for erdraw.
//
// This package implements the complete pipeline used by the CLI and the
// editor server. By centralizing this logic, every entry point applies saved
// positions, runs the layout engine and renders artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a diagram (JSON, YAML or DBML) and apply saved positions
//  2. Layout: Measure tables and place every table that lacks a position
//  3. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "schema.dbml",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	d, err := runner.Load(ctx, opts)
//	placed, err := runner.Layout(ctx, d, opts)
//	artifacts, err := runner.Render(ctx, placed, opts)
package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
	erdio "github.com/matzehuels/erdraw/pkg/io"
	"github.com/matzehuels/erdraw/pkg/layout"
	"github.com/matzehuels/erdraw/pkg/measure"
	"github.com/matzehuels/erdraw/pkg/render/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = sink.DefaultScale

	// DefaultMeasurer measures text with the embedded font faces.
	DefaultMeasurer = MeasurerFace

	// DefaultEngine draws diagrams with the built-in router.
	DefaultEngine = EngineNative

	// DefaultRasterizer draws PNGs natively.
	DefaultRasterizer = string(sink.RasterNative)
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Measurer names.
const (
	MeasurerFixed = "fixed"
	MeasurerFace  = "face"
)

// Engine names. The native engine uses the grid layout and the built-in edge
// router; the graphviz engine hands the diagram to Graphviz dot.
const (
	EngineNative   = "native"
	EngineGraphviz = "graphviz"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidMeasurers is the set of supported text measurers.
var ValidMeasurers = map[string]bool{
	MeasurerFixed: true,
	MeasurerFace:  true,
}

// ValidEngines is the set of supported rendering engines.
var ValidEngines = map[string]bool{
	EngineNative:   true,
	EngineGraphviz: true,
}

// ValidRasterizers is the set of supported PNG backends.
var ValidRasterizers = map[string]bool{
	string(sink.RasterNative): true,
	string(sink.RasterRSVG):   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON and TOML serialization for config files.
type Options struct {
	// Load options
	Input      string `json:"input" toml:"input"`
	LayoutPath string `json:"layout_path,omitempty" toml:"layout_path"` // Saved positions; default <input>.layout.toml
	AutoLayout bool   `json:"auto_layout,omitempty" toml:"auto_layout"` // Ignore saved positions

	// Layout options
	SpacingX      float64 `json:"spacing_x,omitempty" toml:"spacing_x"`
	SpacingY      float64 `json:"spacing_y,omitempty" toml:"spacing_y"`
	StartX        float64 `json:"start_x,omitempty" toml:"start_x"`
	StartY        float64 `json:"start_y,omitempty" toml:"start_y"`
	MaxRingRadius int     `json:"max_ring_radius,omitempty" toml:"max_ring_radius"`
	Measurer      string  `json:"measurer,omitempty" toml:"measurer"`

	// Render options
	Formats      []string `json:"formats,omitempty" toml:"formats"`
	Engine       string   `json:"engine,omitempty" toml:"engine"`
	Scale        float64  `json:"scale,omitempty" toml:"scale"`
	Clearance    float64  `json:"clearance,omitempty" toml:"clearance"`
	Detailed     bool     `json:"detailed,omitempty" toml:"detailed"` // Column types and constraints in DOT labels
	NoBackground bool     `json:"no_background,omitempty" toml:"no_background"`
	NoShadows    bool     `json:"no_shadows,omitempty" toml:"no_shadows"`
	Rasterizer   string   `json:"rasterizer,omitempty" toml:"rasterizer"`
	Refresh      bool     `json:"refresh,omitempty" toml:"refresh"`

	// Runtime options (not serialized)
	Logger       *log.Logger          `json:"-" toml:"-"`
	TextMeasurer measure.TextMeasurer `json:"-" toml:"-"` // Overrides Measurer
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the placed diagram.
	Diagram *erd.Diagram

	// DiagramHash is the content hash of the placed diagram.
	DiagramHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TableCount        int
	RelationshipCount int
	Restored          int // Tables whose saved position was applied
	Placed            int // Tables placed by the layout engine
	LoadTime          time.Duration
	LayoutTime        time.Duration
	RenderTime        time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether positions came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

func validateName(kind, v string, valid map[string]bool) error {
	if valid[v] {
		return nil
	}
	names := make([]string, 0, len(valid))
	for k := range valid {
		names = append(names, k)
	}
	sort.Strings(names)
	return errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q (must be one of: %s)", kind, v, strings.Join(names, ", "))
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error { return validateName("format", format, ValidFormats) }

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMeasurer checks that a measurer name is valid.
func ValidateMeasurer(name string) error { return validateName("measurer", name, ValidMeasurers) }

// ValidateEngine checks that an engine name is valid.
func ValidateEngine(name string) error { return validateName("engine", name, ValidEngines) }

// ValidateRasterizer checks that a rasterizer name is valid.
func ValidateRasterizer(name string) error {
	return validateName("rasterizer", name, ValidRasterizers)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input is required")
	}
	if _, err := erdio.DetectFormat(o.Input); err != nil {
		return err
	}
	if o.LayoutPath != "" {
		if err := errors.ValidateOutputPath(o.LayoutPath); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.SpacingX == 0 {
		o.SpacingX = layout.DefaultSpacingX
	}
	if o.SpacingY == 0 {
		o.SpacingY = layout.DefaultSpacingY
	}
	if o.StartX == 0 {
		o.StartX = layout.DefaultStartX
	}
	if o.StartY == 0 {
		o.StartY = layout.DefaultStartY
	}
	if o.MaxRingRadius == 0 {
		o.MaxRingRadius = layout.DefaultMaxRingRadius
	}
	if o.Measurer == "" {
		o.Measurer = DefaultMeasurer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.SpacingX < 0 || o.SpacingY < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative")
	}
	if err := errors.ValidateCoordinate(o.StartX, o.StartY); err != nil {
		return err
	}
	return ValidateMeasurer(o.Measurer)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Rasterizer == "" {
		o.Rasterizer = DefaultRasterizer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.Engine == EngineGraphviz {
		for _, f := range o.Formats {
			if f == FormatJSON {
				return errors.New(errors.ErrCodeUnsupported, "format %q requires the %s engine", f, EngineNative)
			}
		}
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive")
	}
	if o.Clearance < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "clearance must not be negative")
	}
	return ValidateRasterizer(o.Rasterizer)
}

// IsGraphviz returns true if rendering is delegated to Graphviz.
func (o *Options) IsGraphviz() bool {
	return o.Engine == EngineGraphviz
}

// LayoutOptions returns the layout engine options.
func (o *Options) LayoutOptions() []layout.Option {
	return []layout.Option{
		layout.WithSpacing(o.SpacingX, o.SpacingY),
		layout.WithStart(o.StartX, o.StartY),
		layout.WithMaxRingRadius(o.MaxRingRadius),
	}
}

// NewMeasurer returns the configured text measurer and a function releasing
// it. TextMeasurer takes precedence over Measurer.
func (o *Options) NewMeasurer() (measure.TextMeasurer, func(), error) {
	if o.TextMeasurer != nil {
		return o.TextMeasurer, func() {}, nil
	}
	switch o.Measurer {
	case MeasurerFace, "":
		m, err := measure.NewFaceMeasurer()
		if err != nil {
			return nil, nil, fmt.Errorf("load font faces: %w", err)
		}
		return m, func() { _ = m.Close() }, nil
	case MeasurerFixed:
		return measure.FixedMeasurer{CharWidth: 0.6}, func() {}, nil
	}
	return nil, nil, ValidateMeasurer(o.Measurer)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		SpacingX:      o.SpacingX,
		SpacingY:      o.SpacingY,
		StartX:        o.StartX,
		StartY:        o.StartY,
		MaxRingRadius: o.MaxRingRadius,
		Measurer:      o.measurerKey(),
	}
}

// measurerKey names the measurer for cache keys. Custom measurers get a key
// of their own type so they never share entries with the built-in ones.
func (o *Options) measurerKey() string {
	if o.TextMeasurer != nil {
		return fmt.Sprintf("%T", o.TextMeasurer)
	}
	return o.Measurer
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Engine:     o.Engine,
		Scale:      o.Scale,
		Clearance:  o.Clearance,
		Detailed:   o.Detailed,
		Background: !o.NoBackground,
		Shadows:    !o.NoShadows,
		Rasterizer: o.Rasterizer,
	}
}
