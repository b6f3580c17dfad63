package route

import (
	"fmt"
	"strings"

	"github.com/matzehuels/erdraw/pkg/erd"
)

// MarkerLength is the straight run left at each end for cardinality markers.
const MarkerLength = 24.0

// Shape classifies a route by the orientation of its two sides.
type Shape int

const (
	// Horizontal routes attach on Left/Right at both ends.
	Horizontal Shape = iota
	// Vertical routes attach on Top/Bottom at both ends.
	Vertical
	// Mixed routes turn a corner.
	Mixed
)

func (s Shape) String() string {
	switch s {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "mixed"
	}
}

// Classify returns the shape for a side pair.
func Classify(from, to Side) Shape {
	switch {
	case from.IsHorizontal() && to.IsHorizontal():
		return Horizontal
	case !from.IsHorizontal() && !to.IsHorizontal():
		return Vertical
	default:
		return Mixed
	}
}

// Curve is the drawable path of a route: a straight lead-out from Start to
// Out0, a cubic Bézier to Out1 through C1 and C2, and a lead-in to End.
type Curve struct {
	Shape      Shape
	Start, End erd.Point
	Out0, Out1 erd.Point
	C1, C2     erd.Point
	// Angles of the start and end sides, for rotating markers.
	StartAngle, EndAngle float64
}

// BuildCurve offsets both endpoints outward by clearance and computes the
// control points. Horizontal curves bend through the midpoint x, vertical
// curves through the midpoint y, and mixed curves through the corner where
// the from row meets the to column.
func BuildCurve(r *Route, clearance float64) Curve {
	fdx, fdy := r.FromSide.Direction()
	tdx, tdy := r.ToSide.Direction()
	o0 := r.From.Add(fdx*clearance, fdy*clearance)
	o1 := r.To.Add(tdx*clearance, tdy*clearance)

	c := Curve{
		Shape:      Classify(r.FromSide, r.ToSide),
		Start:      r.From,
		End:        r.To,
		Out0:       o0,
		Out1:       o1,
		StartAngle: r.FromSide.Angle(),
		EndAngle:   r.ToSide.Angle(),
	}
	switch c.Shape {
	case Horizontal:
		midX := (o0.X + o1.X) / 2
		c.C1 = erd.Point{X: midX, Y: o0.Y}
		c.C2 = erd.Point{X: midX, Y: o1.Y}
	case Vertical:
		midY := (o0.Y + o1.Y) / 2
		c.C1 = erd.Point{X: o0.X, Y: midY}
		c.C2 = erd.Point{X: o1.X, Y: midY}
	default:
		c.C1 = erd.Point{X: o1.X, Y: o0.Y}
		c.C2 = o1
	}
	return c
}

// SVGPath returns the curve as SVG path data.
func (c Curve) SVGPath() string {
	var b strings.Builder
	fmt.Fprintf(&b, "M %s L %s C %s %s %s L %s",
		pt(c.Start), pt(c.Out0), pt(c.C1), pt(c.C2), pt(c.Out1), pt(c.End))
	return b.String()
}

func pt(p erd.Point) string { return fmt.Sprintf("%.2f %.2f", p.X, p.Y) }
