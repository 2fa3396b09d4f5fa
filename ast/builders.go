package ast

import (
	"slices"

	"github.com/CaliLuke/go-archql/archetype"
)

// ShortNames creates an archetype constraint matching any of the given
// short name patterns.
func ShortNames(names ...string) ArchetypeByShortNames {
	return ArchetypeByShortNames{ShortNames: names}
}

// ByID creates an archetype constraint for a single archetype.
func ByID(id archetype.ID) ArchetypeByID {
	return ArchetypeByID{ID: id}
}

// LongName creates an archetype constraint from entity and concept names.
func LongName(entity, concept string) ArchetypeByLongName {
	return ArchetypeByLongName{Entity: entity, Concept: concept}
}

// ByReference creates a constraint matching the object with the given reference.
func ByReference(ref archetype.Reference) ObjectByReference {
	return ObjectByReference{Ref: ref}
}

func addChildren(existing []Constraint, children []Constraint) []Constraint {
	return append(slices.Clip(existing), children...)
}

// As returns a copy with the given alias.
func (c ArchetypeByShortNames) As(alias string) ArchetypeByShortNames {
	c.Alias = alias
	return c
}

// Active returns a copy restricted to active objects.
func (c ArchetypeByShortNames) Active() ArchetypeByShortNames {
	c.ActiveOnly = true
	return c
}

// Primary returns a copy restricted to primary archetypes.
func (c ArchetypeByShortNames) Primary() ArchetypeByShortNames {
	c.PrimaryOnly = true
	return c
}

// Add returns a copy with the given children appended.
func (c ArchetypeByShortNames) Add(children ...Constraint) ArchetypeByShortNames {
	c.Children = addChildren(c.Children, children)
	return c
}

// As returns a copy with the given alias.
func (c ArchetypeByID) As(alias string) ArchetypeByID {
	c.Alias = alias
	return c
}

// Active returns a copy restricted to active objects.
func (c ArchetypeByID) Active() ArchetypeByID {
	c.ActiveOnly = true
	return c
}

// Add returns a copy with the given children appended.
func (c ArchetypeByID) Add(children ...Constraint) ArchetypeByID {
	c.Children = addChildren(c.Children, children)
	return c
}

// As returns a copy with the given alias.
func (c ArchetypeByLongName) As(alias string) ArchetypeByLongName {
	c.Alias = alias
	return c
}

// Active returns a copy restricted to active objects.
func (c ArchetypeByLongName) Active() ArchetypeByLongName {
	c.ActiveOnly = true
	return c
}

// Primary returns a copy restricted to primary archetypes.
func (c ArchetypeByLongName) Primary() ArchetypeByLongName {
	c.PrimaryOnly = true
	return c
}

// Add returns a copy with the given children appended.
func (c ArchetypeByLongName) Add(children ...Constraint) ArchetypeByLongName {
	c.Children = addChildren(c.Children, children)
	return c
}

// As returns a copy with the given alias.
func (c ObjectByReference) As(alias string) ObjectByReference {
	c.Alias = alias
	return c
}

// Add returns a copy with the given children appended.
func (c ObjectByReference) Add(children ...Constraint) ObjectByReference {
	c.Children = addChildren(c.Children, children)
	return c
}

// AndOf groups constraints that must all hold.
func AndOf(children ...Constraint) And {
	return And{Children: children}
}

// OrOf groups constraints of which at least one must hold.
func OrOf(children ...Constraint) Or {
	return Or{Children: children}
}

// Compare creates a property comparison with an arbitrary operator.
func Compare(node string, op Op, values ...any) PropertyComparison {
	return PropertyComparison{Node: node, Op: op, Values: values}
}

// Eq creates an equality comparison. String values containing '*' or '%'
// compile to a pattern match.
func Eq(node string, value any) PropertyComparison { return Compare(node, EQ, value) }

// Ne creates an inequality comparison.
func Ne(node string, value any) PropertyComparison { return Compare(node, NE, value) }

// Gt creates a greater-than comparison.
func Gt(node string, value any) PropertyComparison { return Compare(node, GT, value) }

// Gte creates a greater-than-or-equal comparison.
func Gte(node string, value any) PropertyComparison { return Compare(node, GTE, value) }

// Lt creates a less-than comparison.
func Lt(node string, value any) PropertyComparison { return Compare(node, LT, value) }

// Lte creates a less-than-or-equal comparison.
func Lte(node string, value any) PropertyComparison { return Compare(node, LTE, value) }

// Between creates a range comparison. Either bound may be nil.
func Between(node string, lo, hi any) PropertyComparison { return Compare(node, BTW, lo, hi) }

// In creates a set membership comparison.
func In(node string, values ...any) PropertyComparison { return Compare(node, IN, values...) }

// IsNull matches objects where the node has no value.
func IsNull(node string) PropertyComparison { return Compare(node, ISNULL) }

// NotNull matches objects where the node has a value.
func NotNull(node string) PropertyComparison { return Compare(node, NOTNULL) }

// On returns a copy of the comparison qualified by alias.
func (c PropertyComparison) On(alias string) PropertyComparison {
	c.Alias = alias
	return c
}

// RefEq matches a reference node against an object reference.
func RefEq(node string, ref archetype.Reference) ObjectReferenceComparison {
	return ObjectReferenceComparison{Node: node, Op: EQ, Ref: &ref}
}

// RefNe excludes an object reference from a reference node.
func RefNe(node string, ref archetype.Reference) ObjectReferenceComparison {
	return ObjectReferenceComparison{Node: node, Op: NE, Ref: &ref}
}

// RefArchetype matches a reference node by the archetype of the referenced object.
func RefArchetype(node string, op Op, id archetype.ID) ObjectReferenceComparison {
	return ObjectReferenceComparison{Node: node, Op: op, Archetype: id}
}

// IDEq matches when the source and target identities are equal.
func IDEq(source, target string) IDEquality {
	return IDEquality{Source: source, Target: target, Op: EQ}
}

// Join creates an inner join on a collection node.
func Join(node string, children ...Constraint) CollectionJoin {
	return CollectionJoin{Node: node, Kind: InnerJoin, Children: children}
}

// LeftJoin creates a left outer join on a collection node.
func LeftJoin(node string, children ...Constraint) CollectionJoin {
	return CollectionJoin{Node: node, Kind: LeftOuterJoin, Children: children}
}

// As returns a copy of the join with the given alias.
func (c CollectionJoin) As(alias string) CollectionJoin {
	c.Alias = alias
	return c
}

// Of returns a copy of the join restricted to the given archetypes.
func (c CollectionJoin) Of(a ArchetypeConstraint) CollectionJoin {
	c.Archetype = a
	return c
}

// Participation compares one of a participation's activity fields.
func Participation(field ParticipationField, op Op, value any) ParticipationFieldComparison {
	return ParticipationFieldComparison{Field: field, Op: op, Value: value}
}

// ShortNameIs compares the short name of the enclosing archetype scope.
func ShortNameIs(op Op, value string) ArchetypeNodeComparison {
	return ArchetypeNodeComparison{Op: op, Value: value}
}

// SelectObject projects the object with the given alias.
func SelectObject(alias string) Select {
	return Select{Alias: alias}
}

// SelectNode projects a node, given as "<alias>.<node>" or a bare node name.
func SelectNode(node string) Select {
	return Select{Node: node}
}

// SelectRef projects the reference columns of a reference node.
func SelectRef(node string) Select {
	return Select{Node: node, Reference: true}
}

// SortBy orders by a node, given as "<alias>.<node>" or a bare node name.
func SortBy(node string, ascending bool) Sort {
	return Sort{Node: node, Ascending: ascending}
}

// SortByShortName orders the objects of alias by short name.
func SortByShortName(alias string, ascending bool) Sort {
	return Sort{Alias: alias, Ascending: ascending}
}

// NewQuery creates a query rooted at the given archetype constraint.
func NewQuery(root ArchetypeConstraint) Query {
	return Query{Root: root}
}

// WithDistinct returns a copy of the query that suppresses duplicate rows.
func (q Query) WithDistinct() Query {
	q.Distinct = true
	return q
}
