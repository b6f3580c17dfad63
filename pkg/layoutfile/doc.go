// Package layoutfile reads and writes saved table positions.
//
// A layout file is TOML with a [meta] header and one sub-table per placed
// table, keyed by its schema-qualified name:
//
//	[meta]
//	version = 1
//	source = "schema.dbml"
//
//	[tables."public.users"]
//	x = 50.0
//	y = 50.0
//
// By default the file sits beside its source with the extension replaced,
// so schema.dbml is paired with schema.layout.toml (see [DefaultPath]).
//
// [Apply] copies saved positions onto a diagram and [Snapshot] collects them
// back. The [Store] interface abstracts where layouts live: [FileStore] for
// the CLI, [RedisStore] for editor backends that share state, and
// [MemoryStore] for tests.
package layoutfile
