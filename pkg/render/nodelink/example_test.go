package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/render/nodelink"
)

func ExampleToDOT() {
	d := &erd.Diagram{
		Tables: []erd.Table{
			{ID: erd.NewTableID("", "users"), Columns: []erd.Column{{Name: "id", TypeRaw: "int", IsPK: true}}},
			{ID: erd.NewTableID("", "posts"), Columns: []erd.Column{{Name: "user_id", TypeRaw: "int"}}},
		},
		Relationships: []erd.Relationship{{
			Type: erd.ManyToOne,
			From: erd.EndPoint{TableID: erd.NewTableID("", "posts"), ColumnNames: []string{"user_id"}},
			To:   erd.EndPoint{TableID: erd.NewTableID("", "users"), ColumnNames: []string{"id"}},
		}},
	}

	dot := nodelink.ToDOT(d, nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "public.posts":"user_id" -> "public.users":"id" [arrowtail=crowtee, arrowhead=teetee, tooltip="ManyToOne"];
}
