package layout

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/erdraw/pkg/erd"
)

func table(name string, cols int) erd.Table {
	t := erd.Table{ID: erd.NewTableID("", name)}
	for i := 0; i < cols; i++ {
		t.Columns = append(t.Columns, erd.Column{Name: fmt.Sprintf("c%d", i), TypeRaw: "int"})
	}
	return t
}

func rel(from, to string) erd.Relationship {
	return erd.Relationship{
		Type: erd.ManyToOne,
		From: erd.EndPoint{TableID: erd.NewTableID("", from)},
		To:   erd.EndPoint{TableID: erd.NewTableID("", to)},
	}
}

func diagram(tables []erd.Table, rels ...erd.Relationship) *erd.Diagram {
	return &erd.Diagram{Tables: tables, Relationships: rels}
}

func TestPlaceLinearChain(t *testing.T) {
	d := diagram([]erd.Table{table("A", 2), table("B", 2), table("C", 2)},
		rel("A", "B"), rel("B", "C"))

	p := Place(d)
	if p.Root != 1 {
		t.Fatalf("Root = %d, want 1 (B)", p.Root)
	}
	want := map[int]Cell{1: {0, 0}, 0: {1, 0}, 2: {0, 1}}
	if diff := cmp.Diff(want, p.Cells); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceNeighbourPreferenceAndRing(t *testing.T) {
	tables := []erd.Table{table("hub", 1)}
	var rels []erd.Relationship
	for i := 1; i <= 6; i++ {
		name := fmt.Sprintf("leaf%d", i)
		tables = append(tables, table(name, 1))
		rels = append(rels, rel(name, "hub"))
	}

	p := Place(diagram(tables, rels...))
	want := map[int]Cell{
		0: {0, 0},
		1: {1, 0},
		2: {0, 1},
		3: {-1, 0},
		4: {0, -1},
		5: {-1, -1}, // ring radius 1, dx outer, dy inner
		6: {-1, 1},
	}
	if diff := cmp.Diff(want, p.Cells); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceRootSelection(t *testing.T) {
	tests := []struct {
		name string
		d    *erd.Diagram
		want int
	}{
		{
			name: "strictly highest degree",
			d: diagram([]erd.Table{table("a", 0), table("b", 0), table("c", 0), table("d", 0)},
				rel("a", "d"), rel("b", "d"), rel("c", "d")),
			want: 3,
		},
		{
			name: "tie goes to lowest index",
			d: diagram([]erd.Table{table("a", 0), table("b", 0), table("c", 0), table("d", 0)},
				rel("c", "d"), rel("a", "b")),
			want: 0,
		},
		{
			name: "no relationships",
			d:    diagram([]erd.Table{table("a", 0), table("b", 0)}),
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Place(tt.d)
			if p.Root != tt.want {
				t.Errorf("Root = %d, want %d", p.Root, tt.want)
			}
			if c, _ := p.Cell(tt.want); c != (Cell{}) {
				t.Errorf("root cell = %v, want origin", c)
			}
		})
	}
}

func TestPlaceNoCollision(t *testing.T) {
	// Dense graph plus several disconnected components and a dangling ref.
	var tables []erd.Table
	var rels []erd.Relationship
	for i := 0; i < 60; i++ {
		tables = append(tables, table(fmt.Sprintf("t%d", i), i%5))
	}
	for i := 1; i < 40; i++ {
		rels = append(rels, rel(fmt.Sprintf("t%d", i), fmt.Sprintf("t%d", i/3)))
		rels = append(rels, rel(fmt.Sprintf("t%d", i), "t0"))
	}
	rels = append(rels, rel("t50", "missing"), rel("t51", "t52"))

	d := diagram(tables, rels...)
	p := Place(d, WithMaxRingRadius(2))

	if len(p.Cells) != len(tables) {
		t.Fatalf("placed %d tables, want %d", len(p.Cells), len(tables))
	}
	seen := make(map[Cell]int)
	for i, c := range p.Cells {
		if j, dup := seen[c]; dup {
			t.Fatalf("tables %d and %d share cell %v", i, j, c)
		}
		seen[c] = i
	}

	AutoLayout(d)
	for i := range d.Tables {
		for j := i + 1; j < len(d.Tables); j++ {
			a, b := d.Tables[i].Rect(), d.Tables[j].Rect()
			if a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom() {
				t.Fatalf("tables %d and %d overlap: %+v %+v", i, j, a, b)
			}
		}
	}
}

func TestAutoLayoutDeterministic(t *testing.T) {
	build := func() *erd.Diagram {
		return diagram([]erd.Table{table("a", 3), table("b", 1), table("c", 7), table("d", 2), table("e", 0)},
			rel("a", "b"), rel("c", "b"), rel("d", "a"), rel("e", "c"), rel("d", "c"))
	}
	d1, d2 := build(), build()
	AutoLayout(d1)
	AutoLayout(d2)
	AutoLayout(d2)

	if diff := cmp.Diff(d1.Positions(), d2.Positions()); diff != "" {
		t.Errorf("positions differ between runs (-first +second):\n%s", diff)
	}
}

func TestAutoLayoutPixelPositions(t *testing.T) {
	d := diagram([]erd.Table{table("A", 2), table("B", 2), table("C", 2)},
		rel("A", "B"), rel("B", "C"))
	d.Tables[0].SetWidth(240)

	AutoLayout(d)

	rowH := erd.HeaderHeight + 2*erd.RowHeight
	want := map[string]erd.Point{
		"public.B": {X: 50, Y: 50},
		"public.A": {X: 50 + erd.MinTableWidth + 100, Y: 50},
		"public.C": {X: 50, Y: 50 + rowH + 80},
	}
	if diff := cmp.Diff(want, d.Positions()); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoLayoutNegativeCellsAndEmptyLines(t *testing.T) {
	// Hub with four leaves spans columns -1..1 and rows -1..1.
	d := diagram([]erd.Table{table("hub", 0), table("r", 0), table("d", 0), table("l", 0), table("u", 0)},
		rel("r", "hub"), rel("d", "hub"), rel("l", "hub"), rel("u", "hub"))

	AutoLayout(d, WithSpacing(10, 20), WithStart(0, 0))

	h := erd.HeaderHeight
	w := erd.MinTableWidth
	want := map[string]erd.Point{
		"public.l":   {X: 0, Y: h + 20},
		"public.u":   {X: w + 10, Y: 0},
		"public.hub": {X: w + 10, Y: h + 20},
		"public.r":   {X: 2 * (w + 10), Y: h + 20},
		"public.d":   {X: w + 10, Y: 2 * (h + 20)},
	}
	if diff := cmp.Diff(want, d.Positions()); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestOffsetsFallback(t *testing.T) {
	got := offsets(-1, 1, 50, 100, map[int]float64{1: 300}, 200)
	want := []float64{50, 350, 650}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoLayoutOnlyUnplaced(t *testing.T) {
	d := diagram([]erd.Table{table("saved", 3), table("new1", 1), table("new2", 1)},
		rel("new1", "saved"), rel("new2", "new1"))
	d.Tables[0].SetPosition(400, 300)

	AutoLayout(d, OnlyUnplaced())

	if got := d.Tables[0].Pos(); got != (erd.Point{X: 400, Y: 300}) {
		t.Errorf("saved table moved to %v", got)
	}
	for _, i := range []int{1, 2} {
		if !d.Tables[i].HasPosition() {
			t.Fatalf("table %d not placed", i)
		}
	}
	savedBottom := d.Tables[0].Rect().Bottom()
	for _, i := range []int{1, 2} {
		if y := d.Tables[i].Pos().Y; y < savedBottom {
			t.Errorf("table %d at y=%v overlaps saved table ending at %v", i, y, savedBottom)
		}
	}
}

func TestAutoLayoutEmpty(t *testing.T) {
	d := &erd.Diagram{}
	AutoLayout(d)
	if p := Place(d); p.Root != -1 || len(p.Cells) != 0 {
		t.Errorf("Place on empty diagram = %+v", p)
	}

	placed := diagram([]erd.Table{table("a", 0)})
	placed.Tables[0].SetPosition(7, 8)
	AutoLayout(placed, OnlyUnplaced())
	if placed.Tables[0].Pos() != (erd.Point{X: 7, Y: 8}) {
		t.Error("OnlyUnplaced with nothing to place should be a no-op")
	}
}

func TestRingSearchBoundFallback(t *testing.T) {
	g := grid{}
	for dx := -3; dx <= 3; dx++ {
		for dy := -3; dy <= 3; dy++ {
			g[Cell{dx, dy}] = 0
		}
	}
	if _, ok := g.nearestFree(Cell{}, 3); ok {
		t.Fatal("bounded search should fail inside a full 7x7 block")
	}
	if c := g.nearestFreeUnbounded(Cell{}, 3); c != (Cell{-4, -4}) {
		t.Errorf("unbounded search = %v, want {-4 -4}", c)
	}
}
