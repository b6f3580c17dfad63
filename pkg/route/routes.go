package route

import "github.com/matzehuels/erdraw/pkg/erd"

// Route is the attachment geometry of one relationship.
type Route struct {
	FromIdx, ToIdx   int
	FromSide, ToSide Side
	From, To         erd.Point
}

// Compute returns one route per relationship, in relationship order. Entries
// for relationships with an unresolvable table are nil. idx may be nil, in
// which case it is built from d.
func Compute(d *erd.Diagram, idx *erd.Index) []*Route {
	if idx == nil {
		idx = erd.NewIndex(d)
	}
	routes := make([]*Route, len(d.Relationships))
	for i, rel := range d.Relationships {
		fi, ok := idx.Lookup(rel.From.TableID)
		if !ok {
			continue
		}
		ti, ok := idx.Lookup(rel.To.TableID)
		if !ok {
			continue
		}
		ft, tt := &d.Tables[fi], &d.Tables[ti]
		fs, ts := Sides(ft.Rect(), tt.Rect())
		routes[i] = &Route{
			FromIdx:  fi,
			ToIdx:    ti,
			FromSide: fs,
			ToSide:   ts,
			From:     ConnectionPoint(ft, fs, rel.From.FirstColumn()),
			To:       ConnectionPoint(tt, ts, rel.To.FirstColumn()),
		}
	}
	return routes
}

// Sides picks the attachment side of each box. Boxes whose horizontal
// extents overlap attach vertically, the higher center taking Bottom.
// Otherwise the box further left takes Right.
func Sides(from, to erd.Rect) (Side, Side) {
	if from.OverlapsX(to) {
		if from.CenterY() < to.CenterY() {
			return Bottom, Top
		}
		return Top, Bottom
	}
	if from.X < to.X {
		return Right, Left
	}
	return Left, Right
}

// ConnectionPoint returns the raw attachment point on side s of t. Left and
// right points sit at the vertical center of column's row (row 0 when the
// column is missing); top and bottom points sit at the horizontal midpoint.
func ConnectionPoint(t *erd.Table, s Side, column string) erd.Point {
	r := t.Rect()
	switch s {
	case Left:
		return erd.Point{X: r.X, Y: r.Y + RowCenterY(t, column)}
	case Right:
		return erd.Point{X: r.Right(), Y: r.Y + RowCenterY(t, column)}
	case Top:
		return erd.Point{X: r.CenterX(), Y: r.Y}
	default:
		return erd.Point{X: r.CenterX(), Y: r.Bottom()}
	}
}

// RowCenterY returns the offset from the table top to the center of the
// named column's row.
func RowCenterY(t *erd.Table, column string) float64 {
	i := max(t.ColumnIndex(column), 0)
	return erd.HeaderHeight + float64(i)*erd.RowHeight + erd.RowHeight/2
}
