package layout

import (
	"math"

	"github.com/matzehuels/erdraw/pkg/erd"
)

// Placement is the grid phase result: one cell per placed table index.
type Placement struct {
	// Cells maps table index to grid cell.
	Cells map[int]Cell
	// Order lists table indices in the order they were placed.
	Order []int
	// Root is the BFS root, or -1 when nothing was placed.
	Root int
}

// Cell returns the cell assigned to table i.
func (p Placement) Cell(i int) (Cell, bool) {
	c, ok := p.Cells[i]
	return c, ok
}

// Bounds returns the minimum and maximum occupied column and row.
func (p Placement) Bounds() (minC, maxC Cell) {
	first := true
	for _, c := range p.Cells {
		if first {
			minC, maxC, first = c, c, false
			continue
		}
		minC.Col, minC.Row = min(minC.Col, c.Col), min(minC.Row, c.Row)
		maxC.Col, maxC.Row = max(maxC.Col, c.Col), max(maxC.Row, c.Row)
	}
	return minC, maxC
}

// AutoLayout assigns a position to every table in d (or, with OnlyUnplaced,
// to every table without one). An empty diagram is a no-op.
func AutoLayout(d *erd.Diagram, opts ...Option) {
	o := newOptions(opts)
	p := place(d, o)
	if len(p.Cells) == 0 {
		return
	}

	if o.OnlyUnplaced {
		// Keep new tables clear of the saved ones.
		if b, ok := placedBounds(d); ok {
			o.StartY = math.Max(o.StartY, b.Bottom()+o.SpacingY)
		}
	}

	minC, maxC := p.Bounds()
	colWidths := make(map[int]float64)
	rowHeights := make(map[int]float64)
	for i, c := range p.Cells {
		t := &d.Tables[i]
		colWidths[c.Col] = math.Max(colWidths[c.Col], t.BoxWidth())
		rowHeights[c.Row] = math.Max(rowHeights[c.Row], t.Height())
	}

	xs := offsets(minC.Col, maxC.Col, o.StartX, o.SpacingX, colWidths, erd.MinTableWidth)
	ys := offsets(minC.Row, maxC.Row, o.StartY, o.SpacingY, rowHeights, DefaultRowHeight)
	for _, i := range p.Order {
		c := p.Cells[i]
		d.Tables[i].SetPosition(xs[c.Col-minC.Col], ys[c.Row-minC.Row])
	}
}

// offsets returns the pixel start of every grid line in [lo, hi]. Lines with
// no table use fallback as their size.
func offsets(lo, hi int, start, spacing float64, sizes map[int]float64, fallback float64) []float64 {
	out := make([]float64, hi-lo+1)
	pos := start
	for k := lo; k <= hi; k++ {
		out[k-lo] = pos
		size, ok := sizes[k]
		if !ok {
			size = fallback
		}
		pos += size + spacing
	}
	return out
}

// Place runs the grid phase without modifying d.
func Place(d *erd.Diagram, opts ...Option) Placement {
	return place(d, newOptions(opts))
}

func place(d *erd.Diagram, o Options) Placement {
	p := Placement{Cells: make(map[int]Cell), Root: -1}

	members := make([]bool, len(d.Tables))
	n := 0
	for i := range d.Tables {
		if !o.OnlyUnplaced || !d.Tables[i].HasPosition() {
			members[i] = true
			n++
		}
	}
	if n == 0 {
		return p
	}

	adj := adjacency(d, members)
	root := pickRoot(adj, members)
	p.Root = root

	occupied := grid{}
	assign := func(i int, c Cell) {
		occupied[c] = i
		p.Cells[i] = c
		p.Order = append(p.Order, i)
	}

	assign(root, Cell{})
	visited := make([]bool, len(d.Tables))
	visited[root] = true

	queue := []int{root}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		cc := p.Cells[cur]
		for _, nb := range adj[cur] {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			c, ok := occupied.adjacentFree(cc)
			if !ok {
				c = occupied.nearestFreeUnbounded(cc, o.MaxRingRadius)
			}
			assign(nb, c)
			queue = append(queue, nb)
		}
	}

	for i := range d.Tables {
		if members[i] && !visited[i] {
			assign(i, occupied.nearestFreeUnbounded(Cell{}, o.MaxRingRadius))
		}
	}
	return p
}

// adjacency builds undirected neighbour lists in relationship order.
// Relationships with an unresolved or excluded endpoint are skipped.
func adjacency(d *erd.Diagram, members []bool) [][]int {
	idx := erd.NewIndex(d)
	adj := make([][]int, len(d.Tables))
	for _, r := range d.Relationships {
		fi, ok := idx.Lookup(r.From.TableID)
		if !ok || !members[fi] {
			continue
		}
		ti, ok := idx.Lookup(r.To.TableID)
		if !ok || !members[ti] {
			continue
		}
		adj[fi] = append(adj[fi], ti)
		adj[ti] = append(adj[ti], fi)
	}
	return adj
}

// pickRoot returns the member with the highest degree; ties go to the lowest
// index.
func pickRoot(adj [][]int, members []bool) int {
	root, best := -1, -1
	for i, ok := range members {
		if ok && len(adj[i]) > best {
			root, best = i, len(adj[i])
		}
	}
	return root
}

func placedBounds(d *erd.Diagram) (erd.Rect, bool) {
	var r erd.Rect
	ok := false
	for i := range d.Tables {
		t := &d.Tables[i]
		if !t.HasPosition() {
			continue
		}
		if !ok {
			r, ok = t.Rect(), true
			continue
		}
		r = r.Union(t.Rect())
	}
	return r, ok
}
