package sink

import (
	"encoding/json"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/scene"
)

type jsonOutput struct {
	Canvas        erd.Rect    `json:"canvas"`
	Tables        []jsonTable `json:"tables"`
	Relationships []jsonEdge  `json:"relationships"`
	Skipped       int         `json:"skipped,omitempty"`
}

type jsonTable struct {
	ID      string       `json:"id"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Columns []erd.Column `json:"columns"`
}

type jsonEdge struct {
	Index int        `json:"index"`
	Type  string     `json:"type"`
	From  jsonAnchor `json:"from"`
	To    jsonAnchor `json:"to"`
	Shape string     `json:"shape"`
	Path  string     `json:"path"`
}

type jsonAnchor struct {
	Table  string    `json:"table"`
	Side   string    `json:"side"`
	Point  erd.Point `json:"point"`
	Marker string    `json:"marker"`
}

// RenderJSON exports the computed frame: table boxes, attachment sides and
// points, markers and SVG path data. It is the machine-readable counterpart
// of RenderSVG and is safe to call concurrently.
func RenderJSON(s *scene.Scene) ([]byte, error) {
	out := jsonOutput{
		Canvas:        s.Canvas(),
		Tables:        make([]jsonTable, 0, len(s.Tables)),
		Relationships: make([]jsonEdge, 0, len(s.Edges)),
		Skipped:       s.Skipped,
	}
	for _, t := range s.Tables {
		cols := t.Columns
		if cols == nil {
			cols = []erd.Column{}
		}
		out.Tables = append(out.Tables, jsonTable{
			ID:      t.ID.FullName(),
			X:       t.Box.X,
			Y:       t.Box.Y,
			Width:   t.Box.W,
			Height:  t.Box.H,
			Columns: cols,
		})
	}
	for _, e := range s.Edges {
		out.Relationships = append(out.Relationships, jsonEdge{
			Index: e.Rel,
			Type:  e.Type.String(),
			From: jsonAnchor{
				Table:  s.Tables[e.Route.FromIdx].ID.FullName(),
				Side:   e.Route.FromSide.String(),
				Point:  e.Route.From,
				Marker: e.FromKind.String(),
			},
			To: jsonAnchor{
				Table:  s.Tables[e.Route.ToIdx].ID.FullName(),
				Side:   e.Route.ToSide.String(),
				Point:  e.Route.To,
				Marker: e.ToKind.String(),
			},
			Shape: e.Curve.Shape.String(),
			Path:  e.Curve.SVGPath(),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
