package layout

// Default spacing and origin, in world units.
const (
	DefaultSpacingX      = 100.0
	DefaultSpacingY      = 80.0
	DefaultStartX        = 50.0
	DefaultStartY        = 50.0
	DefaultRowHeight     = 200.0
	DefaultMaxRingRadius = 20
)

// Options configures grid placement and pixel conversion.
type Options struct {
	SpacingX, SpacingY float64
	StartX, StartY     float64
	// MaxRingRadius bounds the nearest-free-cell search (exclusive). A search
	// that exhausts the bound continues outward until a cell is found.
	MaxRingRadius int
	// OnlyUnplaced restricts the engine to tables without a position.
	OnlyUnplaced bool
}

// Option configures AutoLayout.
type Option func(*Options)

// WithSpacing sets the gaps between columns and rows.
func WithSpacing(x, y float64) Option {
	return func(o *Options) { o.SpacingX, o.SpacingY = x, y }
}

// WithStart sets the pixel position of the top-left grid cell.
func WithStart(x, y float64) Option {
	return func(o *Options) { o.StartX, o.StartY = x, y }
}

// WithMaxRingRadius bounds the nearest-free-cell ring scan.
func WithMaxRingRadius(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRingRadius = n
		}
	}
}

// OnlyUnplaced keeps tables that already have a position where they are.
// Unplaced tables are laid out among themselves below the placed ones.
func OnlyUnplaced() Option {
	return func(o *Options) { o.OnlyUnplaced = true }
}

func newOptions(opts []Option) Options {
	o := Options{
		SpacingX:      DefaultSpacingX,
		SpacingY:      DefaultSpacingY,
		StartX:        DefaultStartX,
		StartY:        DefaultStartY,
		MaxRingRadius: DefaultMaxRingRadius,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
