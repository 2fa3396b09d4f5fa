// Package ast defines the constraint tree that describes an archetype query.
//
// A query is a tree of immutable constraint values rooted at an archetype
// constraint. The tree is pure data: it is compiled to query text by the
// query package and may be built with the helpers in builders.go or decoded
// from YAML.
package ast

import (
	"github.com/CaliLuke/go-archql/archetype"
)

// Constraint is the marker interface for all constraint tree nodes.
type Constraint interface {
	constraint()
}

// ArchetypeConstraint is implemented by the variants that identify a set of
// archetypes and open a new alias scope.
type ArchetypeConstraint interface {
	Constraint
	// Base returns the alias, active flag and children shared by all
	// archetype-identifying variants.
	Base() ArchetypeBase
}

// ArchetypeBase holds the fields shared by archetype-identifying variants.
type ArchetypeBase struct {
	// Alias is the explicit alias for the matched objects. If empty, one is
	// generated from the implementation type name.
	Alias string
	// ActiveOnly restricts results to active objects, where the
	// implementation type supports it.
	ActiveOnly bool
	// Children are evaluated in the scope of this archetype.
	Children []Constraint
}

// --- Archetype-identifying variants ---

// ArchetypeByID matches objects of exactly one archetype.
type ArchetypeByID struct {
	ArchetypeBase
	ID archetype.ID
}

func (ArchetypeByID) constraint()           {}
func (c ArchetypeByID) Base() ArchetypeBase { return c.ArchetypeBase }

// ArchetypeByShortNames matches objects whose short name matches any of the
// patterns. Patterns may contain '*' wildcards.
type ArchetypeByShortNames struct {
	ArchetypeBase
	ShortNames  []string
	PrimaryOnly bool
}

func (ArchetypeByShortNames) constraint()           {}
func (c ArchetypeByShortNames) Base() ArchetypeBase { return c.ArchetypeBase }

// ArchetypeByLongName matches objects by entity and concept name. Either
// part may be empty or contain wildcards; an empty part matches anything.
type ArchetypeByLongName struct {
	ArchetypeBase
	Entity      string
	Concept     string
	PrimaryOnly bool
}

func (ArchetypeByLongName) constraint()           {}
func (c ArchetypeByLongName) Base() ArchetypeBase { return c.ArchetypeBase }

// ObjectByReference matches the single object identified by Ref.
type ObjectByReference struct {
	ArchetypeBase
	Ref archetype.Reference
}

func (ObjectByReference) constraint()           {}
func (c ObjectByReference) Base() ArchetypeBase { return c.ArchetypeBase }

// --- Logical grouping ---

// And requires all children to hold.
type And struct {
	Children []Constraint
}

func (And) constraint() {}

// Or requires at least one child to hold.
type Or struct {
	Children []Constraint
}

func (Or) constraint() {}

// --- Leaf comparisons ---

// PropertyComparison compares a node against zero or more values.
//
// Node is either a bare node name, "<alias>.<node>", or "details.<key>" for
// an entry in an object's details map. The number of values depends on Op:
// none for ISNULL and NOTNULL, two (either of which may be nil) for BTW,
// any number for IN, and one otherwise.
type PropertyComparison struct {
	Alias  string
	Node   string
	Op     Op
	Values []any
}

func (PropertyComparison) constraint() {}

// ObjectReferenceComparison compares a reference node against either a
// full object reference or, when Ref is nil, an archetype.
type ObjectReferenceComparison struct {
	Alias     string
	Node      string
	Op        Op
	Ref       *archetype.Reference
	Archetype archetype.ID
}

func (ObjectReferenceComparison) constraint() {}

// IDEquality compares the identities of two objects. Source and Target are
// either an alias or "<alias>.<node>" naming a reference node.
type IDEquality struct {
	Source string
	Target string
	Op     Op
}

func (IDEquality) constraint() {}

// ParticipationField names a denormalised activity field of a participation.
type ParticipationField int

const (
	ActShortName ParticipationField = iota
	ActivityStartTime
	ActivityEndTime
)

var participationFieldNames = [...]string{
	ActShortName:      "actShortName",
	ActivityStartTime: "activityStartTime",
	ActivityEndTime:   "activityEndTime",
}

// Property returns the storage property of the field.
func (f ParticipationField) Property() string {
	if f >= 0 && int(f) < len(participationFieldNames) {
		return participationFieldNames[f]
	}
	return ""
}

func (f ParticipationField) String() string { return f.Property() }

// ParseParticipationField parses a field by its property name.
func ParseParticipationField(s string) (ParticipationField, bool) {
	for i, name := range participationFieldNames {
		if name == s {
			return ParticipationField(i), true
		}
	}
	return 0, false
}

// ParticipationFieldComparison compares a participation's activity field.
type ParticipationFieldComparison struct {
	Alias string
	Field ParticipationField
	Op    Op
	Value any
}

func (ParticipationFieldComparison) constraint() {}

// ArchetypeNodeComparison compares the short name of the objects in the
// enclosing archetype scope.
type ArchetypeNodeComparison struct {
	Op    Op
	Value string
}

func (ArchetypeNodeComparison) constraint() {}

// --- Joins ---

// JoinKind selects inner or left outer join semantics.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
)

func (k JoinKind) String() string {
	if k == LeftOuterJoin {
		return "left join"
	}
	return "inner join"
}

// CollectionJoin joins the objects held by a collection node of the
// enclosing archetype scope. The joined objects are identified by
// Archetype if set, otherwise by the node's declared archetype range.
type CollectionJoin struct {
	Alias     string
	Node      string
	Kind      JoinKind
	Archetype ArchetypeConstraint
	Children  []Constraint
}

func (CollectionJoin) constraint() {}

// --- Projection and ordering ---

// Select adds a projection. With Node empty the object named by Alias is
// selected. With Reference set, the node's reference columns are selected.
// Node may also be given as "<alias>.<node>".
type Select struct {
	Alias     string
	Node      string
	Reference bool
}

func (Select) constraint() {}

// Sort orders results by a node, or by short name if Node is empty.
type Sort struct {
	Alias     string
	Node      string
	Ascending bool
}

func (Sort) constraint() {}

// Query is a complete query: a root archetype constraint plus flags.
type Query struct {
	Root     ArchetypeConstraint
	Distinct bool
}
