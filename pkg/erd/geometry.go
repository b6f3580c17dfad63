package erd

import "math"

// Rect is an axis-aligned box in world coordinates; (X, Y) is the top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// OverlapsX reports whether the horizontal extents of r and o overlap.
// Touching edges do not count.
func (r Rect) OverlapsX(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right()
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.Right(), o.Right())
	maxY := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset grows r by pad on every side (shrinks when pad is negative).
func (r Rect) Inset(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, W: r.W + 2*pad, H: r.H + 2*pad}
}

// Bounds returns the union of every table's box. ok is false for an empty
// diagram.
func (d *Diagram) Bounds() (r Rect, ok bool) {
	for i := range d.Tables {
		tr := d.Tables[i].Rect()
		if !ok {
			r, ok = tr, true
			continue
		}
		r = r.Union(tr)
	}
	return r, ok
}
