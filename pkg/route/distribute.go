package route

import "github.com/matzehuels/erdraw/pkg/erd"

type sideKey struct {
	table int
	side  Side
}

// endpoint addresses one end of a route.
type endpoint struct {
	route *Route
	from  bool
}

func (e endpoint) point() *erd.Point {
	if e.from {
		return &e.route.From
	}
	return &e.route.To
}

// Distribute spreads endpoints that share a (table, side) evenly along that
// side. Within a group, endpoints keep production order: routes in order,
// the from end before the to end. Left and right groups spread over the body
// below the header; top and bottom groups over the full width. Groups of one
// keep their raw point.
func Distribute(d *erd.Diagram, routes []*Route) {
	groups := make(map[sideKey][]endpoint)
	var order []sideKey
	add := func(k sideKey, e endpoint) {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	for _, r := range routes {
		if r == nil {
			continue
		}
		add(sideKey{r.FromIdx, r.FromSide}, endpoint{r, true})
		add(sideKey{r.ToIdx, r.ToSide}, endpoint{r, false})
	}

	for _, k := range order {
		members := groups[k]
		n := len(members)
		if n <= 1 {
			continue
		}
		box := d.Tables[k.table].Rect()
		for j, e := range members {
			frac := float64(j+1) / float64(n+1)
			p := e.point()
			if k.side.IsHorizontal() {
				p.Y = box.Y + erd.HeaderHeight + (box.H-erd.HeaderHeight)*frac
			} else {
				p.X = box.X + box.W*frac
			}
		}
	}
}
