// Package yindex indexes YANG schemas into flat SQL rows: one row per named
// schema node with its module, revision, schema path, statement keyword,
// argument, description and a JSON encoding of its substatements, plus an
// optional metadata row per module.
//
// # Pipeline
//
// Indexing runs in three steps:
//
//  1. Load: parse YANG files in parallel and register each module by name
//     and revision. Imported, included and belongs-to modules that were not
//     given explicitly are found on the search path.
//
//  2. Resolve: per module family, collect typedefs, features, identities,
//     groupings and extensions, expand uses statements into the data tree
//     and attach augment children to their targets.
//
//  3. Emit: walk each module in a fixed order and write rows to a sink,
//     either SQL text or a SQLite database.
//
// # Usage
//
// Write the SQL text form of a set of modules:
//
//	stats, err := yindex.Emit(ctx, os.Stdout, []string{"ietf-system.yang"},
//		yindex.WithSearchPath("modules/"), yindex.WithModuleTable(true))
//
// Or maintain a database and query it:
//
//	e, err := yindex.New("yindex.db", yindex.WithSearchPath("modules/"))
//	if err != nil { ... }
//	defer e.Close()
//
//	stats, err := e.IndexDirectory(ctx, "modules/")
//
//	q := e.Query()
//	node, err := q.NodeAt("/sys:system/sys:hostname", "")
//	props, err := q.Properties(node)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.Modules] and [QueryBuilder.Module]: indexed module
//     revisions with metadata and node counts.
//   - [QueryBuilder.Nodes]: nodes filtered by module, statement, argument or
//     path prefix, paged.
//   - [QueryBuilder.NodeAt]: the node at an exact schema path.
//   - [QueryBuilder.Search]: nodes whose argument or description contains a
//     term.
//   - [QueryBuilder.Properties]: a node's decoded substatements.
//   - [QueryBuilder.Summary]: row counts.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] detects unchanged files via content hashing and skips
// them. The rows of every module revision emitted from a changed file are
// replaced in a single transaction. [WithForce] re-indexes regardless.
package yindex
