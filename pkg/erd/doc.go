// Package erd defines the entity-relationship diagram model shared by every
// stage of the erdraw pipeline.
//
// # Overview
//
// A [Diagram] is a list of [Table] values (each with ordered [Column]
// definitions) plus a list of [Relationship] values connecting columns of two
// tables. The diagram is the owned context object: every algorithm receives it
// by pointer, and no package-level state exists.
//
// # Optional Fields
//
// A table's position and computed width are explicit optionals. Readers never
// inspect the pointers directly; they go through the single fallback helpers:
//
//   - [Table.Pos] returns the origin when no position is set
//   - [Table.BoxWidth] returns [MinTableWidth] when no width has been computed
//   - [Table.Height] derives the box height from the column count
//
// # Lookups
//
// Relationship endpoints reference tables by [TableID]. Build an [Index] once
// per pass to resolve them in constant time:
//
//	idx := erd.NewIndex(d)
//	if i, ok := idx.Lookup(rel.From.TableID); ok {
//	    t := &d.Tables[i]
//	    ...
//	}
//
// When two tables share an id, the first one wins.
//
// # Wire Format
//
// The JSON encoding of [Diagram] is the intermediate representation accepted
// by the loaders in [github.com/matzehuels/erdraw/pkg/io]: snake_case field
// names and relation types spelled "OneToOne", "OneToMany", "ManyToOne" and
// "ManyToMany".
package erd
