// Package io loads and saves ER diagrams.
//
// # Formats
//
// Three source formats are recognized by file extension (see [DetectFormat]):
//
//   - .json: the diagram model in its wire form
//   - .yaml, .yml: the same model with shorter keys, convenient to hand-write
//   - .dbml: a DBML schema, parsed by [github.com/matzehuels/erdraw/pkg/dbml]
//
// The JSON form is also what the editor receives on load:
//
//	{
//	  "tables": [
//	    {
//	      "id": {"schema": "public", "name": "users"},
//	      "columns": [{"name": "id", "type_raw": "int", "is_pk": true, "is_nullable": false}],
//	      "position": {"x": 50, "y": 50}
//	    }
//	  ],
//	  "relationships": [
//	    {
//	      "relation_type": "ManyToOne",
//	      "from": {"table_id": {"schema": "public", "name": "posts"}, "column_names": ["user_id"]},
//	      "to": {"table_id": {"schema": "public", "name": "users"}, "column_names": ["id"]}
//	    }
//	  ]
//	}
//
// The YAML form uses "table" and "columns" for endpoints and "type",
// "pk" and "nullable" for columns.
//
// # Import
//
// Use [Import] to read a file with format detection, or [Read] with an
// explicit [Format] for any io.Reader. Empty schemas are normalized to
// "public" and the result is checked with [erd.Diagram.Validate].
//
// # Export
//
// [Export] writes JSON or YAML. DBML output is not supported; diagrams
// loaded from DBML can be saved in either model format.
package io
