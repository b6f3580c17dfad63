package marker

import (
	"fmt"
	"testing"

	"github.com/matzehuels/erdraw/pkg/erd"
)

func fkTable(name string, nullable bool) *erd.Table {
	return &erd.Table{
		ID: erd.NewTableID("", name),
		Columns: []erd.Column{
			{Name: "id", TypeRaw: "int", IsPK: true},
			{Name: "fk", TypeRaw: "int", IsNullable: nullable},
		},
	}
}

func relation(rt erd.RelationType) erd.Relationship {
	return erd.Relationship{
		Type: rt,
		From: erd.EndPoint{TableID: erd.NewTableID("", "from"), ColumnNames: []string{"fk"}},
		To:   erd.EndPoint{TableID: erd.NewTableID("", "to"), ColumnNames: []string{"fk"}},
	}
}

func TestResolveTruthTable(t *testing.T) {
	tests := []struct {
		rt                   erd.RelationType
		fromNullable, toNull bool
		wantFrom, wantTo     Kind
	}{
		{erd.ManyToOne, false, true, ManyMandatory, OneMandatory},
		{erd.ManyToOne, true, false, ManyOptional, OneOptional},
		{erd.OneToMany, true, false, OneMandatory, ManyMandatory},
		{erd.OneToMany, false, true, OneOptional, ManyOptional},
		{erd.OneToOne, false, true, OneMandatory, OneMandatory},
		{erd.OneToOne, true, false, OneOptional, OneOptional},
		{erd.ManyToMany, false, false, ManyOptional, ManyOptional},
		{erd.ManyToMany, true, true, ManyOptional, ManyOptional},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%v/from=%v/to=%v", tt.rt, tt.fromNullable, tt.toNull)
		t.Run(name, func(t *testing.T) {
			f, to := Resolve(relation(tt.rt), fkTable("from", tt.fromNullable), fkTable("to", tt.toNull))
			if f != tt.wantFrom || to != tt.wantTo {
				t.Errorf("Resolve = (%v, %v), want (%v, %v)", f, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestResolveMissingColumnIsNullable(t *testing.T) {
	rel := relation(erd.ManyToOne)
	rel.From.ColumnNames = []string{"not_there"}
	f, to := Resolve(rel, fkTable("from", false), fkTable("to", false))
	if f != ManyOptional || to != OneOptional {
		t.Errorf("missing column: got (%v, %v)", f, to)
	}

	rel.From.ColumnNames = nil
	f, _ = Resolve(rel, fkTable("from", false), nil)
	if f != ManyOptional {
		t.Errorf("no column names: got %v", f)
	}

	f, to = Resolve(relation(erd.OneToMany), nil, nil)
	if f != OneOptional || to != ManyOptional {
		t.Errorf("nil tables: got (%v, %v)", f, to)
	}
}

func TestKindNamesAndIDs(t *testing.T) {
	want := map[Kind]string{
		OneMandatory:  "one-mandatory",
		OneOptional:   "one-optional",
		ManyMandatory: "many-mandatory",
		ManyOptional:  "many-optional",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("String() = %q, want %q", k.String(), s)
		}
		if ID(k, Start) != s+"-start" || ID(k, Finish) != s+"-end" {
			t.Errorf("ID(%v) = %q / %q", k, ID(k, Start), ID(k, Finish))
		}
	}
	if !ManyOptional.IsMany() || !ManyOptional.IsOptional() || OneMandatory.IsMany() || OneMandatory.IsOptional() {
		t.Error("IsMany/IsOptional predicates wrong")
	}
}

func TestGlyphs(t *testing.T) {
	for _, k := range Kinds {
		g := GlyphFor(k)
		if g.CrowsFoot != k.IsMany() {
			t.Errorf("%v: CrowsFoot = %v", k, g.CrowsFoot)
		}
		if (g.Circle != 0) != k.IsOptional() {
			t.Errorf("%v: Circle = %v", k, g.Circle)
		}
		if len(g.Segments()) == 0 {
			t.Errorf("%v: no segments", k)
		}
	}
	if n := len(GlyphFor(OneMandatory).Segments()); n != 2 {
		t.Errorf("one-mandatory segments = %d, want 2", n)
	}
	if n := len(GlyphFor(ManyMandatory).Segments()); n != 3 {
		t.Errorf("many-mandatory segments = %d, want 3", n)
	}
}
