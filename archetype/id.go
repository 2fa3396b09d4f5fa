// Package archetype models archetype descriptors: the runtime-assigned shapes
// given to generically persisted objects, the node descriptors that describe
// their fields, and the catalog and type-mapping collaborators the query
// compiler consults.
package archetype

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies an archetype by entity name, concept name and version.
// Its short name is "<entity>.<concept>", e.g. "party.customerperson".
type ID struct {
	Entity  string
	Concept string
	Version string
}

// ParseID parses either a short name ("party.person") or a qualified
// name with a version ("party.person.1.0").
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ID{}, fmt.Errorf("archetype: invalid archetype id %q", s)
	}
	id := ID{Entity: parts[0], Concept: parts[1]}
	if len(parts) > 2 {
		id.Version = strings.Join(parts[2:], ".")
	}
	return id, nil
}

// MustParseID is like ParseID but panics on malformed input.
// It is intended for tests and static tables.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ShortName returns "<entity>.<concept>".
func (id ID) ShortName() string {
	return id.Entity + "." + id.Concept
}

// QualifiedName returns the short name followed by the version, if any.
func (id ID) QualifiedName() string {
	if id.Version == "" {
		return id.ShortName()
	}
	return id.ShortName() + "." + id.Version
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id.Entity == "" && id.Concept == ""
}

func (id ID) String() string {
	return id.QualifiedName()
}

// Reference is the composite identity of a persisted object: its archetype
// plus its numeric id. LinkID is the durable identifier that survives
// export and re-import; it takes no part in query predicates.
type Reference struct {
	Archetype ID
	ID        int64
	LinkID    string
}

// NewReference creates a reference to the object with the given short name and id.
func NewReference(shortName string, id int64) (Reference, error) {
	aid, err := ParseID(shortName)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Archetype: aid, ID: id}, nil
}

func (r Reference) String() string {
	return r.Archetype.ShortName() + ":" + strconv.FormatInt(r.ID, 10)
}
