package layout_test

import (
	"fmt"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/layout"
)

func ExampleAutoLayout() {
	users := erd.NewTableID("public", "users")
	posts := erd.NewTableID("public", "posts")
	d := &erd.Diagram{
		Tables: []erd.Table{
			{ID: users, Columns: []erd.Column{{Name: "id", TypeRaw: "int", IsPK: true}}},
			{ID: posts, Columns: []erd.Column{{Name: "id", TypeRaw: "int"}, {Name: "user_id", TypeRaw: "int"}}},
		},
		Relationships: []erd.Relationship{{
			Type: erd.ManyToOne,
			From: erd.EndPoint{TableID: posts, ColumnNames: []string{"user_id"}},
			To:   erd.EndPoint{TableID: users, ColumnNames: []string{"id"}},
		}},
	}

	layout.AutoLayout(d)
	for _, t := range d.Tables {
		fmt.Printf("%s at (%.0f, %.0f)\n", t.ID, t.Pos().X, t.Pos().Y)
	}
	// Output:
	// public.users at (50, 50)
	// public.posts at (310, 50)
}

func ExamplePlace() {
	d := &erd.Diagram{Tables: []erd.Table{
		{ID: erd.NewTableID("", "a")},
		{ID: erd.NewTableID("", "b")},
		{ID: erd.NewTableID("", "c")},
	}}

	p := layout.Place(d)
	for _, i := range p.Order {
		c, _ := p.Cell(i)
		fmt.Println(d.Tables[i].ID.Name, c.Col, c.Row)
	}
	// Output:
	// a 0 0
	// b -1 -1
	// c -1 0
}
