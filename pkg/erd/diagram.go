package erd

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Geometry constants shared by the width estimator, the layout engine, the
// route computer and every renderer.
const (
	HeaderHeight   = 36.0
	RowHeight      = 28.0
	PaddingX       = 12.0
	MinTableWidth  = 160.0
	FontSize       = 14.0
	HeaderFontSize = 15.0
	BorderRadius   = 4.0
)

// DefaultSchema is assigned to tables referenced without a schema qualifier.
const DefaultSchema = "public"

// =============================================================================
// Identifiers
// =============================================================================

// TableID identifies a table by schema and name. It is comparable and can be
// used directly as a map key.
type TableID struct {
	Schema string `json:"schema" yaml:"schema"`
	Name   string `json:"name" yaml:"name"`
}

// NewTableID returns the id for schema.name. An empty schema becomes
// [DefaultSchema].
func NewTableID(schema, name string) TableID {
	if schema == "" {
		schema = DefaultSchema
	}
	return TableID{Schema: schema, Name: name}
}

// ParseTableID splits "schema.name" on the first dot. A bare name is placed in
// [DefaultSchema].
func ParseTableID(full string) TableID {
	if schema, name, ok := strings.Cut(full, "."); ok {
		return NewTableID(schema, name)
	}
	return NewTableID("", full)
}

// FullName returns "schema.name".
func (id TableID) FullName() string { return id.Schema + "." + id.Name }

// String implements fmt.Stringer.
func (id TableID) String() string { return id.FullName() }

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// =============================================================================
// Tables
// =============================================================================

// Column is a single table column.
type Column struct {
	Name       string `json:"name" yaml:"name"`
	TypeRaw    string `json:"type_raw" yaml:"type"`
	IsPK       bool   `json:"is_pk" yaml:"pk,omitempty"`
	IsNullable bool   `json:"is_nullable" yaml:"nullable,omitempty"`
}

// Table is a diagram box. Position and Width are unset (nil) until placed or
// measured.
type Table struct {
	ID       TableID  `json:"id" yaml:"id"`
	Columns  []Column `json:"columns" yaml:"columns"`
	Position *Point   `json:"position,omitempty" yaml:"position,omitempty"`
	Width    *float64 `json:"-" yaml:"-"`
}

// MarshalJSON emits an empty column list rather than null.
func (t Table) MarshalJSON() ([]byte, error) {
	type alias Table
	if t.Columns == nil {
		t.Columns = []Column{}
	}
	return json.Marshal(alias(t))
}

// HasPosition reports whether the table has been placed.
func (t *Table) HasPosition() bool { return t.Position != nil }

// Pos returns the table's top-left corner, or the origin when unplaced.
func (t *Table) Pos() Point {
	if t.Position == nil {
		return Point{}
	}
	return *t.Position
}

// SetPosition places the table's top-left corner at (x, y).
func (t *Table) SetPosition(x, y float64) { t.Position = &Point{X: x, Y: y} }

// ClearPosition marks the table as unplaced.
func (t *Table) ClearPosition() { t.Position = nil }

// BoxWidth returns the computed width, or [MinTableWidth] when not yet measured.
func (t *Table) BoxWidth() float64 {
	if t.Width == nil {
		return MinTableWidth
	}
	return *t.Width
}

// SetWidth records the computed box width.
func (t *Table) SetWidth(w float64) { t.Width = &w }

// Height returns the box height: header plus one row per column.
func (t *Table) Height() float64 {
	return HeaderHeight + float64(len(t.Columns))*RowHeight
}

// Rect returns the table's bounding box.
func (t *Table) Rect() Rect {
	p := t.Pos()
	return Rect{X: p.X, Y: p.Y, W: t.BoxWidth(), H: t.Height()}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column, or nil when absent.
func (t *Table) Column(name string) *Column {
	if i := t.ColumnIndex(name); i >= 0 {
		return &t.Columns[i]
	}
	return nil
}

// =============================================================================
// Relationships
// =============================================================================

// RelationType is the cardinality of a relationship, read from the From side.
type RelationType int

const (
	ManyToOne RelationType = iota
	OneToMany
	OneToOne
	ManyToMany
)

var relationNames = [...]string{
	ManyToOne:  "ManyToOne",
	OneToMany:  "OneToMany",
	OneToOne:   "OneToOne",
	ManyToMany: "ManyToMany",
}

// String returns the wire name of the relation type.
func (r RelationType) String() string {
	if r < 0 || int(r) >= len(relationNames) {
		return fmt.Sprintf("RelationType(%d)", int(r))
	}
	return relationNames[r]
}

// ParseRelationType parses a wire name such as "ManyToOne".
func ParseRelationType(s string) (RelationType, error) {
	for i, name := range relationNames {
		if name == s {
			return RelationType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown relation type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r RelationType) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(relationNames) {
		return nil, fmt.Errorf("invalid relation type %d", int(r))
	}
	return []byte(relationNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RelationType) UnmarshalText(b []byte) error {
	v, err := ParseRelationType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// EndPoint is one side of a relationship.
type EndPoint struct {
	TableID     TableID  `json:"table_id" yaml:"table"`
	ColumnNames []string `json:"column_names" yaml:"columns"`
}

// MarshalJSON emits an empty column list rather than null.
func (e EndPoint) MarshalJSON() ([]byte, error) {
	type alias EndPoint
	if e.ColumnNames == nil {
		e.ColumnNames = []string{}
	}
	return json.Marshal(alias(e))
}

// FirstColumn returns the first referenced column name, or "" when none.
func (e EndPoint) FirstColumn() string {
	if len(e.ColumnNames) == 0 {
		return ""
	}
	return e.ColumnNames[0]
}

// Relationship connects columns of two tables.
type Relationship struct {
	Type RelationType `json:"relation_type" yaml:"type"`
	From EndPoint     `json:"from" yaml:"from"`
	To   EndPoint     `json:"to" yaml:"to"`
}

// =============================================================================
// Diagram
// =============================================================================

// Diagram is the full model: tables in declaration order plus relationships in
// declaration order. Order is significant for layout determinism.
type Diagram struct {
	Tables        []Table        `json:"tables" yaml:"tables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// Table returns the first table with the given id, or nil.
func (d *Diagram) Table(id TableID) *Table {
	for i := range d.Tables {
		if d.Tables[i].ID == id {
			return &d.Tables[i]
		}
	}
	return nil
}

// ClearPositions marks every table as unplaced.
func (d *Diagram) ClearPositions() {
	for i := range d.Tables {
		d.Tables[i].ClearPosition()
	}
}

// AllPlaced reports whether every table has a position.
func (d *Diagram) AllPlaced() bool {
	for i := range d.Tables {
		if !d.Tables[i].HasPosition() {
			return false
		}
	}
	return true
}

// Positions returns the placed tables' positions keyed by full name.
func (d *Diagram) Positions() map[string]Point {
	out := make(map[string]Point, len(d.Tables))
	for i := range d.Tables {
		if t := &d.Tables[i]; t.HasPosition() {
			out[t.ID.FullName()] = *t.Position
		}
	}
	return out
}

// Clone returns a deep copy of the diagram.
func (d *Diagram) Clone() *Diagram {
	out := &Diagram{
		Tables:        make([]Table, len(d.Tables)),
		Relationships: make([]Relationship, len(d.Relationships)),
	}
	for i, t := range d.Tables {
		t.Columns = append([]Column(nil), t.Columns...)
		if t.Position != nil {
			p := *t.Position
			t.Position = &p
		}
		if t.Width != nil {
			w := *t.Width
			t.Width = &w
		}
		out.Tables[i] = t
	}
	for i, r := range d.Relationships {
		r.From.ColumnNames = append([]string(nil), r.From.ColumnNames...)
		r.To.ColumnNames = append([]string(nil), r.To.ColumnNames...)
		out.Relationships[i] = r
	}
	return out
}

// MarshalJSON emits empty arrays rather than null for missing slices.
func (d Diagram) MarshalJSON() ([]byte, error) {
	type alias Diagram
	if d.Tables == nil {
		d.Tables = []Table{}
	}
	if d.Relationships == nil {
		d.Relationships = []Relationship{}
	}
	return json.Marshal(alias(d))
}
