package editor

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Message
	}{
		{
			name: "table moved",
			in:   `{"type":"table_moved","table_id":"public.users","x":150.0,"y":250.0}`,
			want: TableMoved{TableID: "public.users", X: 150, Y: 250},
		},
		{
			name: "table moved at origin",
			in:   `{"type":"table_moved","table_id":"public.users","x":0,"y":0}`,
			want: TableMoved{TableID: "public.users"},
		},
		{
			name: "save layout",
			in:   `{"type":"save_layout","tables":{"public.users":{"x":50,"y":50},"public.posts":{"x":300,"y":50}}}`,
			want: SaveLayout{Tables: map[string]erd.Point{
				"public.users": {X: 50, Y: 50},
				"public.posts": {X: 300, Y: 50},
			}},
		},
		{
			name: "save layout empty",
			in:   `{"type":"save_layout","tables":{}}`,
			want: SaveLayout{Tables: map[string]erd.Point{}},
		},
		{
			name: "export png",
			in:   `{"type":"export_png","data_url":"data:image/png;base64,iVBORw0KGgo="}`,
			want: ExportPNG{DataURL: "data:image/png;base64,iVBORw0KGgo="},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseMessage() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseMessage() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"delete_table","table_id":"public.users"}`},
		{"missing type", `{"table_id":"public.users","x":1,"y":2}`},
		{"table moved missing y", `{"type":"table_moved","table_id":"public.users","x":1}`},
		{"table moved missing id", `{"type":"table_moved","x":1,"y":2}`},
		{"table moved bad x", `{"type":"table_moved","table_id":"public.users","x":"left","y":2}`},
		{"save layout missing tables", `{"type":"save_layout"}`},
		{"export missing url", `{"type":"export_png"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.in))
			if !errors.Is(err, errors.ErrCodeInvalidMessage) {
				t.Errorf("ParseMessage(%s) err = %v, want INVALID_MESSAGE", tt.in, err)
			}
		})
	}
}

func TestMarshalMessage(t *testing.T) {
	msgs := []Message{
		TableMoved{TableID: "public.users", X: 150, Y: 250},
		SaveLayout{Tables: map[string]erd.Point{"public.users": {X: 1, Y: 2}}},
		ExportPNG{DataURL: PNGDataURLPrefix + "AAAA"},
	}
	for _, m := range msgs {
		t.Run(string(m.Type()), func(t *testing.T) {
			data, err := MarshalMessage(m)
			if err != nil {
				t.Fatalf("MarshalMessage() error: %v", err)
			}
			if !json.Valid(data) {
				t.Fatalf("MarshalMessage() produced invalid JSON: %s", data)
			}
			got, err := ParseMessage(data)
			if err != nil {
				t.Fatalf("ParseMessage(%s) error: %v", data, err)
			}
			if diff := cmp.Diff(m, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
