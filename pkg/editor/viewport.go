package editor

import (
	"math"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// Zoom factors applied per wheel step.
const (
	ZoomInFactor  = 1.1
	ZoomOutFactor = 0.9
)

// MaxFitScale caps the scale chosen by [Viewport.Fit].
const MaxFitScale = 2.0

// Viewport maps world coordinates to canvas pixels:
// screen = world×Scale + Pan.
type Viewport struct {
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
	Scale float64 `json:"scale"`
}

// Identity is the unpanned, unscaled viewport.
var Identity = Viewport{Scale: 1}

// ScreenToWorld converts a canvas-relative point to world coordinates.
func (v Viewport) ScreenToWorld(p erd.Point) erd.Point {
	return erd.Point{X: (p.X - v.PanX) / v.Scale, Y: (p.Y - v.PanY) / v.Scale}
}

// WorldToScreen converts a world point to canvas pixels.
func (v Viewport) WorldToScreen(p erd.Point) erd.Point {
	return erd.Point{X: p.X*v.Scale + v.PanX, Y: p.Y*v.Scale + v.PanY}
}

// Fit centres content in a w×h canvas with [scene.Padding] around it. The
// scale never exceeds [MaxFitScale]. A non-positive canvas leaves v unchanged.
func (v *Viewport) Fit(content erd.Rect, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	pad := scene.Padding
	cw := content.W + 2*pad
	ch := content.H + 2*pad

	v.Scale = math.Min(math.Min(w/cw, h/ch), MaxFitScale)
	v.PanX = (w-cw*v.Scale)/2 - content.X*v.Scale + pad*v.Scale
	v.PanY = (h-ch*v.Scale)/2 - content.Y*v.Scale + pad*v.Scale
}

// Zoom scales around the canvas point (mx, my), which stays fixed on screen.
// A positive deltaY zooms out.
func (v *Viewport) Zoom(mx, my, deltaY float64) {
	f := ZoomInFactor
	if deltaY > 0 {
		f = ZoomOutFactor
	}
	v.PanX = mx - (mx-v.PanX)*f
	v.PanY = my - (my-v.PanY)*f
	v.Scale *= f
}

// Pan shifts the view by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}
