// Package archql compiles polymorphic archetype queries.
//
// Objects in an archetype-based store share a small set of persisted
// implementation types and are told apart by a runtime archetype short name
// such as "party.customerperson". Callers describe a query as a tree of
// constraints over archetypes and their nodes; the compiler turns it into
// parameterised object-query text plus a parameter map for an
// object-relational mapper to execute.
//
// The module is organized into these packages:
//
//   - [github.com/CaliLuke/go-archql/archetype] — archetype descriptors, catalog and type hierarchy
//   - [github.com/CaliLuke/go-archql/ast] — constraint tree nodes, builders and YAML decoding
//   - [github.com/CaliLuke/go-archql/query] — type resolution, compilation context and compiler
//   - [github.com/CaliLuke/go-archql/adl] — archetype definition language parser and constant generator
//   - [github.com/CaliLuke/go-archql/catalogdb] — SQLite persistence for catalogs
//
// The archq command in query/cmd/archq compiles YAML query documents from
// the command line.
package archql
