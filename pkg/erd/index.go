package erd

// Index maps table ids to their position in [Diagram.Tables].
//
// It is built once per pass and is only valid while the table slice is not
// reordered. Duplicate ids resolve to the first table.
type Index struct {
	byID   map[TableID]int
	byName map[string]int
}

// NewIndex builds the lookup for d.
func NewIndex(d *Diagram) *Index {
	idx := &Index{
		byID:   make(map[TableID]int, len(d.Tables)),
		byName: make(map[string]int, len(d.Tables)),
	}
	for i := range d.Tables {
		id := d.Tables[i].ID
		if _, dup := idx.byID[id]; !dup {
			idx.byID[id] = i
		}
		if _, dup := idx.byName[id.FullName()]; !dup {
			idx.byName[id.FullName()] = i
		}
	}
	return idx
}

// Lookup returns the index of the table with the given id.
func (x *Index) Lookup(id TableID) (int, bool) {
	i, ok := x.byID[id]
	return i, ok
}

// LookupName resolves a "schema.name" key.
func (x *Index) LookupName(full string) (int, bool) {
	i, ok := x.byName[full]
	return i, ok
}

// Len returns the number of distinct ids.
func (x *Index) Len() int { return len(x.byID) }
