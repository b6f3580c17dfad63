package layout

// Cell is a signed integer grid coordinate.
type Cell struct {
	Col, Row int
}

// Add returns c shifted by (dc, dr).
func (c Cell) Add(dc, dr int) Cell { return Cell{Col: c.Col + dc, Row: c.Row + dr} }

// neighbours is the placement preference around a parent: right, down, left, up.
var neighbours = [4]Cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// grid tracks occupied cells. Values are table indices.
type grid map[Cell]int

func (g grid) free(c Cell) bool {
	_, taken := g[c]
	return !taken
}

// adjacentFree returns the first free direct neighbour of c.
func (g grid) adjacentFree(c Cell) (Cell, bool) {
	for _, d := range neighbours {
		if n := c.Add(d.Col, d.Row); g.free(n) {
			return n, true
		}
	}
	return Cell{}, false
}

// nearestFree scans square rings around c for radius in [1, maxRadius).
func (g grid) nearestFree(c Cell, maxRadius int) (Cell, bool) {
	return g.scanRings(c, 1, maxRadius)
}

// nearestFreeUnbounded continues the ring scan past maxRadius. The grid is
// finite so a free cell always exists.
func (g grid) nearestFreeUnbounded(c Cell, maxRadius int) Cell {
	if n, ok := g.nearestFree(c, maxRadius); ok {
		return n
	}
	for r := max(maxRadius, 1); ; r++ {
		if n, ok := g.scanRings(c, r, r+1); ok {
			return n
		}
	}
}

func (g grid) scanRings(c Cell, from, to int) (Cell, bool) {
	for radius := from; radius < to; radius++ {
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				if abs(dx) != radius && abs(dy) != radius {
					continue
				}
				if n := c.Add(dx, dy); g.free(n) {
					return n, true
				}
			}
		}
	}
	return Cell{}, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
