// Package marker derives crow's-foot (IE notation) cardinality markers from
// relationship metadata and describes how each marker is drawn.
//
// [Resolve] applies a fixed truth table keyed by the relation type. The
// optionality of both ends follows the nullability of the foreign-key column,
// looked up by the first referenced column name. A column that cannot be
// found counts as nullable.
//
//	ManyToOne   from FK   many / one
//	OneToMany   to FK     one / many
//	OneToOne    from FK   one / one
//	ManyToMany  -         many-optional / many-optional
package marker

import (
	"fmt"

	"github.com/matzehuels/erdraw/pkg/erd"
)

// Kind is a cardinality marker.
type Kind int

const (
	OneMandatory Kind = iota
	OneOptional
	ManyMandatory
	ManyOptional
)

// Kinds lists every marker kind.
var Kinds = []Kind{OneMandatory, OneOptional, ManyMandatory, ManyOptional}

var kindNames = [...]string{
	OneMandatory:  "one-mandatory",
	OneOptional:   "one-optional",
	ManyMandatory: "many-mandatory",
	ManyOptional:  "many-optional",
}

// String returns the kebab-case name, e.g. "one-mandatory".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// IsMany reports whether k is a crow's-foot marker.
func (k Kind) IsMany() bool { return k == ManyMandatory || k == ManyOptional }

// IsOptional reports whether k allows zero.
func (k Kind) IsOptional() bool { return k == OneOptional || k == ManyOptional }

func one(nullable bool) Kind {
	if nullable {
		return OneOptional
	}
	return OneMandatory
}

func many(nullable bool) Kind {
	if nullable {
		return ManyOptional
	}
	return ManyMandatory
}

// Resolve returns the markers for the from and to ends of rel. from and to
// are the resolved endpoint tables; either may be nil, which counts as an
// unknown (nullable) column.
func Resolve(rel erd.Relationship, from, to *erd.Table) (Kind, Kind) {
	switch rel.Type {
	case erd.ManyToOne:
		n := nullable(from, rel.From)
		return many(n), one(n)
	case erd.OneToMany:
		n := nullable(to, rel.To)
		return one(n), many(n)
	case erd.OneToOne:
		n := nullable(from, rel.From)
		return one(n), one(n)
	default:
		return ManyOptional, ManyOptional
	}
}

func nullable(t *erd.Table, ep erd.EndPoint) bool {
	if t == nil {
		return true
	}
	c := t.Column(ep.FirstColumn())
	if c == nil {
		return true
	}
	return c.IsNullable
}

// End selects which end of a line a marker sits on.
type End int

const (
	Start End = iota
	Finish
)

// ID returns the identifier used for marker definitions in vector output,
// e.g. "many-optional-start".
func ID(k Kind, e End) string {
	if e == Start {
		return k.String() + "-start"
	}
	return k.String() + "-end"
}
