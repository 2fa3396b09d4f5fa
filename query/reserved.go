package query

import (
	"fmt"
	"strings"
	"unicode"
)

// detailsNode is the map-valued node holding an object's free-form details.
const detailsNode = "details"

// HQLReservedWords is the set of query-language keywords that cannot be
// used as aliases.
var HQLReservedWords = map[string]bool{
	// Clauses
	"select": true, "from": true, "where": true, "order": true, "by": true,
	"group": true, "having": true, "update": true, "delete": true, "insert": true,
	"into": true, "set": true,
	// Joins
	"join": true, "inner": true, "outer": true, "left": true, "right": true,
	"full": true, "fetch": true, "with": true, "on": true, "as": true,
	// Predicates
	"and": true, "or": true, "not": true, "is": true, "null": true, "like": true,
	"in": true, "between": true, "exists": true, "escape": true, "member": true,
	"of": true, "empty": true, "some": true, "any": true, "all": true,
	// Projection
	"distinct": true, "new": true, "object": true, "elements": true, "indices": true,
	// Ordering
	"asc": true, "desc": true,
	// Map and collection functions
	"key": true, "value": true, "entry": true, "index": true, "size": true,
	// Aggregates
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	// Literals
	"true": true, "false": true,
	// Expressions
	"case": true, "when": true, "then": true, "else": true, "end": true,
}

// IsReservedWord returns true if the given name is a query-language keyword.
// The check is case-insensitive.
func IsReservedWord(name string) bool {
	return HQLReservedWords[strings.ToLower(name)]
}

// ValidateIdentifier checks that a name may be used as an alias: it must
// start with a letter or underscore, continue with letters, digits or
// underscores, and not be a reserved word.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty alias")
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return fmt.Errorf("alias %q must start with a letter or underscore", name)
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return fmt.Errorf("invalid character %q in alias %q", r, name)
		}
	}
	if IsReservedWord(name) {
		return fmt.Errorf("alias %q is a reserved word", name)
	}
	return nil
}
