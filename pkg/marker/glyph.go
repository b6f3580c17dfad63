package marker

// Glyph describes a marker in a local frame: the attachment point is the
// origin and +x points away from the table, along the line. Renderers rotate
// the frame by the side angle and draw the primitives.
type Glyph struct {
	// Bars are x offsets of short perpendicular strokes.
	Bars []float64
	// Circle is the x offset of an open circle, or 0 when absent.
	Circle float64
	// CrowsFoot draws two strokes from (FootTip, 0) back to (0, ±HalfHeight).
	CrowsFoot bool
}

// Marker primitive dimensions.
const (
	HalfHeight   = 8.0
	CircleRadius = 5.0
	FootTip      = 12.0
)

var glyphs = map[Kind]Glyph{
	OneMandatory:  {Bars: []float64{6, 12}},
	OneOptional:   {Bars: []float64{6}, Circle: 14},
	ManyMandatory: {Bars: []float64{16}, CrowsFoot: true},
	ManyOptional:  {Circle: 18, CrowsFoot: true},
}

// GlyphFor returns the drawing description of k.
func GlyphFor(k Kind) Glyph {
	return glyphs[k]
}

// Segment is a straight stroke in the marker's local frame.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Segments returns the strokes of g: bars first, then the crow's foot.
func (g Glyph) Segments() []Segment {
	var out []Segment
	for _, x := range g.Bars {
		out = append(out, Segment{x, -HalfHeight, x, HalfHeight})
	}
	if g.CrowsFoot {
		out = append(out,
			Segment{FootTip, 0, 0, -HalfHeight},
			Segment{FootTip, 0, 0, HalfHeight})
	}
	return out
}
