package route

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/erdraw/pkg/erd"
)

func placed(name string, x, y float64, cols ...string) erd.Table {
	t := erd.Table{ID: erd.NewTableID("", name)}
	for _, c := range cols {
		t.Columns = append(t.Columns, erd.Column{Name: c, TypeRaw: "int"})
	}
	t.SetPosition(x, y)
	return t
}

func link(from, fromCol, to, toCol string) erd.Relationship {
	return erd.Relationship{
		Type: erd.ManyToOne,
		From: erd.EndPoint{TableID: erd.NewTableID("", from), ColumnNames: []string{fromCol}},
		To:   erd.EndPoint{TableID: erd.NewTableID("", to), ColumnNames: []string{toCol}},
	}
}

func TestSides(t *testing.T) {
	tests := []struct {
		name         string
		from, to     erd.Rect
		wantF, wantT Side
	}{
		{"from left of to", erd.Rect{X: 0, W: 100, H: 50}, erd.Rect{X: 200, W: 100, H: 50}, Right, Left},
		{"from right of to", erd.Rect{X: 300, W: 100, H: 50}, erd.Rect{X: 0, W: 100, H: 50}, Left, Right},
		{"overlap, from above", erd.Rect{X: 0, Y: 0, W: 100, H: 50}, erd.Rect{X: 50, Y: 200, W: 100, H: 50}, Bottom, Top},
		{"overlap, from below", erd.Rect{X: 0, Y: 300, W: 100, H: 50}, erd.Rect{X: 50, Y: 0, W: 100, H: 50}, Top, Bottom},
		{"touching edges do not overlap", erd.Rect{X: 0, W: 100, H: 50}, erd.Rect{X: 100, Y: 300, W: 100, H: 50}, Right, Left},
		{"same box", erd.Rect{W: 100, H: 50}, erd.Rect{W: 100, H: 50}, Top, Bottom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, to := Sides(tt.from, tt.to)
			if f != tt.wantF || to != tt.wantT {
				t.Errorf("Sides = (%v, %v), want (%v, %v)", f, to, tt.wantF, tt.wantT)
			}
		})
	}
}

func TestConnectionPoint(t *testing.T) {
	tbl := placed("t", 100, 200, "id", "name", "owner_id")
	tbl.SetWidth(180)

	tests := []struct {
		side   Side
		column string
		want   erd.Point
	}{
		{Left, "owner_id", erd.Point{X: 100, Y: 200 + 36 + 2*28 + 14}},
		{Right, "name", erd.Point{X: 280, Y: 200 + 36 + 28 + 14}},
		{Right, "missing", erd.Point{X: 280, Y: 200 + 36 + 14}},
		{Left, "", erd.Point{X: 100, Y: 200 + 36 + 14}},
		{Top, "name", erd.Point{X: 190, Y: 200}},
		{Bottom, "name", erd.Point{X: 190, Y: 200 + 36 + 3*28}},
	}
	for _, tt := range tests {
		t.Run(tt.side.String()+"/"+tt.column, func(t *testing.T) {
			if got := ConnectionPoint(&tbl, tt.side, tt.column); got != tt.want {
				t.Errorf("ConnectionPoint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeGracefulDegradation(t *testing.T) {
	d := &erd.Diagram{
		Tables: []erd.Table{
			placed("a", 0, 0, "id", "b_id"),
			placed("b", 400, 0, "id"),
		},
		Relationships: []erd.Relationship{
			link("a", "b_id", "b", "id"),
			link("a", "b_id", "ghost", "id"),
			link("ghost", "id", "b", "id"),
			link("b", "id", "a", "id"),
		},
	}

	routes := Compute(d, nil)
	if len(routes) != 4 {
		t.Fatalf("len(routes) = %d, want 4", len(routes))
	}
	if routes[1] != nil || routes[2] != nil {
		t.Errorf("dangling relationships should yield nil routes: %+v %+v", routes[1], routes[2])
	}

	want0 := &Route{
		FromIdx: 0, ToIdx: 1, FromSide: Right, ToSide: Left,
		From: erd.Point{X: erd.MinTableWidth, Y: 36 + 28 + 14},
		To:   erd.Point{X: 400, Y: 36 + 14},
	}
	if diff := cmp.Diff(want0, routes[0]); diff != "" {
		t.Errorf("route 0 mismatch (-want +got):\n%s", diff)
	}
	if routes[3] == nil || routes[3].FromSide != Left || routes[3].ToSide != Right {
		t.Errorf("route 3 = %+v", routes[3])
	}
}

func TestComputeUnplacedUsesFallbacks(t *testing.T) {
	d := &erd.Diagram{
		Tables: []erd.Table{
			{ID: erd.NewTableID("", "a")},
			{ID: erd.NewTableID("", "b")},
		},
		Relationships: []erd.Relationship{link("a", "x", "b", "y")},
	}
	r := Compute(d, erd.NewIndex(d))[0]
	if r == nil {
		t.Fatal("route should be computed for unplaced tables")
	}
	// Both at the origin: same box, so vertical attachment.
	if r.FromSide != Top || r.ToSide != Bottom {
		t.Errorf("sides = %v/%v", r.FromSide, r.ToSide)
	}
}

func TestComputeEmpty(t *testing.T) {
	if routes := Compute(&erd.Diagram{}, nil); len(routes) != 0 {
		t.Errorf("Compute on empty diagram = %v", routes)
	}
	Distribute(&erd.Diagram{}, nil)
}

func TestDistributeFanIn(t *testing.T) {
	d := &erd.Diagram{
		Tables: []erd.Table{
			placed("target", 500, 100, "c0", "c1", "c2", "c3", "c4"),
			placed("s1", 0, 0, "fk"),
			placed("s2", 0, 300, "fk"),
			placed("s3", 0, 600, "fk"),
		},
		Relationships: []erd.Relationship{
			link("s1", "fk", "target", "c0"),
			link("s2", "fk", "target", "c2"),
			link("s3", "fk", "target", "c4"),
		},
	}
	routes := Compute(d, nil)
	for i, r := range routes {
		if r.ToSide != Left {
			t.Fatalf("route %d attaches on %v, want Left", i, r.ToSide)
		}
	}
	raw := routes[0].From

	Distribute(d, routes)

	headerBottom := 100 + erd.HeaderHeight
	span := 5 * erd.RowHeight
	for j, r := range routes {
		want := headerBottom + span*float64(j+1)/4
		if math.Abs(r.To.Y-want) > 1e-9 {
			t.Errorf("route %d y = %v, want %v", j, r.To.Y, want)
		}
		if r.To.X != 500 {
			t.Errorf("route %d x changed to %v", j, r.To.X)
		}
	}
	if routes[0].From != raw {
		t.Errorf("single endpoint moved from %v to %v", raw, routes[0].From)
	}
}

func TestDistributeMonotonic(t *testing.T) {
	// Four tables stacked under a wide parent: every route hits parent's Bottom.
	d := &erd.Diagram{
		Tables: []erd.Table{
			placed("parent", 0, 0, "id"),
			placed("a", 0, 300, "p"),
			placed("b", 100, 300, "p"),
			placed("c", 0, 600, "p"),
			placed("self", 1000, 0, "id", "parent_id"),
		},
		Relationships: []erd.Relationship{
			link("a", "p", "parent", "id"),
			link("b", "p", "parent", "id"),
			link("c", "p", "parent", "id"),
			// A self reference contributes two endpoints to different sides.
			link("self", "parent_id", "self", "id"),
		},
	}
	d.Tables[0].SetWidth(400)

	routes := Compute(d, nil)
	Distribute(d, routes)

	box := d.Tables[0].Rect()
	prev := box.X
	for j := 0; j < 3; j++ {
		r := routes[j]
		if r.ToSide != Bottom {
			t.Fatalf("route %d to side = %v, want Bottom", j, r.ToSide)
		}
		if !(r.To.X > prev && r.To.X < box.Right()) {
			t.Errorf("route %d x = %v not in (%v, %v)", j, r.To.X, prev, box.Right())
		}
		if r.To.Y != box.Bottom() {
			t.Errorf("route %d y = %v, want bottom edge %v", j, r.To.Y, box.Bottom())
		}
		prev = r.To.X
	}
}

func TestDistributeLeftRightWithinBody(t *testing.T) {
	d := &erd.Diagram{
		Tables: []erd.Table{
			placed("hub", 400, 0, "a", "b"),
			placed("x", 0, 0, "fk"),
			placed("y", 0, 200, "fk"),
		},
		Relationships: []erd.Relationship{
			link("x", "fk", "hub", "b"),
			link("y", "fk", "hub", "b"),
		},
	}
	routes := Compute(d, nil)
	Distribute(d, routes)

	box := d.Tables[0].Rect()
	lo, hi := box.Y+erd.HeaderHeight, box.Bottom()
	if !(lo < routes[0].To.Y && routes[0].To.Y < routes[1].To.Y && routes[1].To.Y < hi) {
		t.Errorf("y coordinates %v, %v not strictly inside (%v, %v) in order",
			routes[0].To.Y, routes[1].To.Y, lo, hi)
	}
}
