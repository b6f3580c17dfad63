package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

const sampleJSON = `{
  "tables": [
    {
      "id": {"schema": "public", "name": "users"},
      "columns": [{"name": "id", "type_raw": "int", "is_pk": true, "is_nullable": false}],
      "position": {"x": 50, "y": 50}
    },
    {
      "id": {"schema": "", "name": "posts"},
      "columns": [{"name": "user_id", "type_raw": "int", "is_pk": false, "is_nullable": true}]
    }
  ],
  "relationships": [
    {
      "relation_type": "ManyToOne",
      "from": {"table_id": {"schema": "public", "name": "posts"}, "column_names": ["user_id"]},
      "to": {"table_id": {"schema": "public", "name": "users"}, "column_names": ["id"]}
    }
  ]
}`

func sampleDiagram() *erd.Diagram {
	users := erd.Table{
		ID:      erd.NewTableID("public", "users"),
		Columns: []erd.Column{{Name: "id", TypeRaw: "int", IsPK: true}},
	}
	users.SetPosition(50, 50)
	return &erd.Diagram{
		Tables: []erd.Table{
			users,
			{ID: erd.NewTableID("public", "posts"), Columns: []erd.Column{{Name: "user_id", TypeRaw: "int", IsNullable: true}}},
		},
		Relationships: []erd.Relationship{{
			Type: erd.ManyToOne,
			From: erd.EndPoint{TableID: erd.NewTableID("public", "posts"), ColumnNames: []string{"user_id"}},
			To:   erd.EndPoint{TableID: erd.NewTableID("public", "users"), ColumnNames: []string{"id"}},
		}},
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.json", FormatJSON, true},
		{"a.YAML", FormatYAML, true},
		{"dir/a.yml", FormatYAML, true},
		{"schema.dbml", FormatDBML, true},
		{"schema.sql", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err == nil) != tt.ok {
				t.Fatalf("DetectFormat(%q) err = %v, want ok=%v", tt.path, err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("code = %q, want INVALID_FORMAT", errors.GetCode(err))
			}
		})
	}
}

func TestRead_JSON(t *testing.T) {
	d, err := Read(strings.NewReader(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if diff := cmp.Diff(sampleDiagram(), d); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_YAML(t *testing.T) {
	src := `
tables:
  - id: {name: users}
    columns:
      - {name: id, type: int, pk: true}
    position: {x: 50, y: 50}
  - id: {schema: public, name: posts}
    columns:
      - {name: user_id, type: int, nullable: true}
relationships:
  - type: ManyToOne
    from: {table: {name: posts}, columns: [user_id]}
    to: {table: {name: users}, columns: [id]}
`
	d, err := Read(strings.NewReader(src), FormatYAML)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if diff := cmp.Diff(sampleDiagram(), d); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_DBML(t *testing.T) {
	d, err := Read(strings.NewReader("Table users {\n  id int [pk]\n}\n"), FormatDBML)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(d.Tables) != 1 || d.Tables[0].ID.FullName() != "public.users" {
		t.Errorf("tables = %+v", d.Tables)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		format Format
		code   errors.Code
	}{
		{"bad json", "{", FormatJSON, errors.ErrCodeParse},
		{"bad relation type", `{"relationships":[{"relation_type":"Sideways"}]}`, FormatJSON, errors.ErrCodeParse},
		{"bad yaml", "tables: [", FormatYAML, errors.ErrCodeParse},
		{"bad dbml", "nonsense", FormatDBML, errors.ErrCodeParse},
		{"empty name", `{"tables":[{"id":{"schema":"s","name":""}}]}`, FormatJSON, errors.ErrCodeInvalidDiagram},
		{"unknown format", "", Format("xml"), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRead_EmptyYAML(t *testing.T) {
	d, err := Read(strings.NewReader(""), FormatYAML)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(d.Tables) != 0 {
		t.Errorf("tables = %+v, want none", d.Tables)
	}
}

func TestWrite_JSONEmptyArrays(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&erd.Diagram{}, &buf, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"tables": []`) || !strings.Contains(buf.String(), `"relationships": []`) {
		t.Errorf("Write() = %s, want empty arrays", buf.String())
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"d.json", "d.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Export(sampleDiagram(), path); err != nil {
				t.Fatalf("Export() error: %v", err)
			}
			got, err := Import(path)
			if err != nil {
				t.Fatalf("Import() error: %v", err)
			}
			if diff := cmp.Diff(sampleDiagram(), got); diff != "" {
				t.Errorf("Import() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExport_DBMLUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dbml")
	err := Export(sampleDiagram(), path)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Export() should not create a file for unsupported formats")
	}
}

func TestImport_Missing(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.dbml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}
