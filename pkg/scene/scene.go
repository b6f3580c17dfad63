// Package scene assembles a drawable frame from a diagram: table boxes,
// routed relationship curves and their cardinality markers.
//
// [Build] is the per-frame pipeline. It resolves table ids once, computes and
// distributes routes, then derives markers and curves, so its cost stays
// linear in tables plus relationships and it can run on every drag update.
// Renderers consume the resulting [Scene] and never reach back into the
// layout or routing packages.
package scene

import (
	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/marker"
	"github.com/matzehuels/erdraw/pkg/route"
)

// Padding is the margin around the diagram used for export canvases and
// fit-to-view.
const Padding = 50.0

// Table is a table box ready to draw.
type Table struct {
	ID      erd.TableID
	Box     erd.Rect
	Columns []erd.Column
}

// Edge is a routed relationship.
type Edge struct {
	// Rel is the index into the diagram's relationships.
	Rel      int
	Type     erd.RelationType
	Route    route.Route
	Curve    route.Curve
	FromKind marker.Kind
	ToKind   marker.Kind
}

// Scene is one drawable frame.
type Scene struct {
	Tables []Table
	Edges  []Edge
	// Skipped counts relationships that could not be routed.
	Skipped int
}

// Options configures Build.
type Options struct {
	// Clearance is the straight run at each curve end. Zero means
	// route.MarkerLength.
	Clearance float64
}

// Build computes the frame for d. Tables are emitted in diagram order (later
// tables draw on top); edges in relationship order, unroutable ones omitted.
func Build(d *erd.Diagram, opts Options) *Scene {
	clearance := opts.Clearance
	if clearance == 0 {
		clearance = route.MarkerLength
	}

	s := &Scene{Tables: make([]Table, len(d.Tables))}
	for i := range d.Tables {
		t := &d.Tables[i]
		s.Tables[i] = Table{ID: t.ID, Box: t.Rect(), Columns: t.Columns}
	}

	idx := erd.NewIndex(d)
	routes := route.Compute(d, idx)
	route.Distribute(d, routes)

	for i, r := range routes {
		if r == nil {
			s.Skipped++
			continue
		}
		rel := d.Relationships[i]
		fk, tk := marker.Resolve(rel, &d.Tables[r.FromIdx], &d.Tables[r.ToIdx])
		s.Edges = append(s.Edges, Edge{
			Rel:      i,
			Type:     rel.Type,
			Route:    *r,
			Curve:    route.BuildCurve(r, clearance),
			FromKind: fk,
			ToKind:   tk,
		})
	}
	return s
}

// Bounds returns the union of all table boxes. ok is false for an empty
// scene.
func (s *Scene) Bounds() (r erd.Rect, ok bool) {
	for _, t := range s.Tables {
		if !ok {
			r, ok = t.Box, true
			continue
		}
		r = r.Union(t.Box)
	}
	return r, ok
}

// Canvas returns the padded export area. An empty scene yields a padding-only
// canvas at the origin.
func (s *Scene) Canvas() erd.Rect {
	b, ok := s.Bounds()
	if !ok {
		return erd.Rect{W: 2 * Padding, H: 2 * Padding}
	}
	return b.Inset(Padding)
}

// TableAt returns the index of the topmost table containing p, or -1.
func (s *Scene) TableAt(p erd.Point) int {
	for i := len(s.Tables) - 1; i >= 0; i-- {
		if s.Tables[i].Box.Contains(p) {
			return i
		}
	}
	return -1
}
