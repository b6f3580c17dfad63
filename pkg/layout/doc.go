// Package layout places diagram tables on an integer grid and converts grid
// cells to pixel positions.
//
// # Algorithm
//
// [AutoLayout] treats relationships as an undirected graph over table indices
// and runs a breadth-first traversal from the most connected table (ties go to
// the lowest index). The root sits at [Cell]{0, 0}. Each newly discovered
// neighbour takes the first free cell around its parent in the fixed order
// right, down, left, up. When all four are taken, square rings of growing
// radius around the parent are scanned (dx outer, dy inner, perimeter cells
// only) and the first free cell wins. Tables unreachable from the root are
// placed with the same ring scan around the origin, in table order.
//
// Cells are converted to pixels with per-column widths and per-row heights
// (the largest table in each), so boxes of different sizes never overlap:
//
//	x = StartX + Σ (colWidth[c] + SpacingX)   for minCol ≤ c < col
//	y = StartY + Σ (rowHeight[r] + SpacingY)  for minRow ≤ r < row
//
// The neighbour order and ring scan order are fixed policy. Changing either
// changes every generated layout.
//
// # Usage
//
//	layout.AutoLayout(d)                         // place every table
//	layout.AutoLayout(d, layout.OnlyUnplaced())  // keep saved positions
//
// [Place] runs the grid phase alone and returns the [Placement] without
// touching the diagram.
package layout
