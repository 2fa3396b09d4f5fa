// archq compiles archetype queries written as YAML documents.
//
// Usage:
//
//	archq compile --catalog catalog.adl query.yaml [--distinct] [--format text|json|msgpack]
//	archq catalog --catalog catalog.adl --db catalog.db
//	archq gen --catalog catalog.adl [--pkg archetypes] [-o archetypes_gen.go]
//
// --catalog accepts either an archetype definition file or a database
// written by the catalog command.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
