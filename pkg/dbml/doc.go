// Package dbml parses the subset of DBML needed to draw ER diagrams.
//
// # Supported syntax
//
//	Table schema.users as U [headercolor: #3b4a5a] {
//	  id int [pk]
//	  email "character varying" [not null, unique]
//	  org_id int [ref: > orgs.id]
//	  indexes { email [unique] }
//	  Note: 'ignored'
//	}
//
//	Ref: posts.user_id > users.id
//	Ref named { posts.(a, b) - other.(a, b) }
//
// Tables without a schema are placed in "public". Columns are nullable unless
// marked "not null"; "pk" does not imply "not null".
//
// Relationship operators map to [erd.RelationType]:
//
//	>   ManyToOne
//	<   OneToMany
//	-   OneToOne
//	<>  ManyToMany
//
// References with any other operator are skipped. Standalone Ref statements
// come first in the result, followed by inline column refs in table order.
//
// Project, Enum, TableGroup, TablePartial, Records and top-level Note blocks
// are recognized and ignored, as are column defaults, notes and indexes.
package dbml
