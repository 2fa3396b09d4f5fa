package query

import (
	"errors"
	"slices"
	"strings"

	"github.com/CaliLuke/go-archql/archetype"
)

// TypeSet is a set of archetypes resolved from a constraint, together with
// the single implementation type that persists them and the alias under
// which they are queried.
type TypeSet struct {
	alias       string
	descriptors []*archetype.Descriptor
	implType    string
}

// Alias returns the alias, which is empty until the set is pushed.
func (t *TypeSet) Alias() string { return t.alias }

// ImplementationType returns the implementation type name.
func (t *TypeSet) ImplementationType() string { return t.implType }

// Descriptors returns the archetype descriptors, ordered by short name.
func (t *TypeSet) Descriptors() []*archetype.Descriptor {
	return slices.Clone(t.descriptors)
}

// ShortNames returns the archetype short names, sorted.
func (t *TypeSet) ShortNames() []string {
	names := make([]string, len(t.descriptors))
	for i, d := range t.descriptors {
		names[i] = d.ShortName
	}
	return names
}

// contains reports whether every archetype of other is also in t.
func (t *TypeSet) contains(other *TypeSet) bool {
	names := t.ShortNames()
	for _, d := range other.descriptors {
		if _, found := slices.BinarySearch(names, d.ShortName); !found {
			return false
		}
	}
	return true
}

// node returns the descriptor for the named node. Every archetype in the
// set must declare the node, and all declarations must agree on path and type.
func (t *TypeSet) node(name string) (*archetype.NodeDescriptor, error) {
	if name == "" {
		return nil, newError(MustSpecifyNodeName)
	}
	var result *archetype.NodeDescriptor
	for _, d := range t.descriptors {
		n := d.Node(name)
		if n == nil {
			return nil, newError(NoNodeDescWithName, d.ShortName, name)
		}
		if result == nil {
			result = n
		} else if result.Path != n.Path || result.Type != n.Type {
			return nil, newError(NodeDescriptorsDoNotMatch, name)
		}
	}
	if result == nil {
		return nil, newError(NoNodeDescriptorForName, name)
	}
	return result, nil
}

// TypeResolver turns archetype constraints into TypeSets using a catalog
// and a type mapper.
type TypeResolver struct {
	catalog archetype.Catalog
	mapper  archetype.TypeMapper
}

// NewTypeResolver creates a resolver.
func NewTypeResolver(catalog archetype.Catalog, mapper archetype.TypeMapper) *TypeResolver {
	return &TypeResolver{catalog: catalog, mapper: mapper}
}

// ResolveShortNames resolves short name patterns. The union of all matches
// must be non-empty and share an implementation type.
func (r *TypeResolver) ResolveShortNames(patterns []string, primaryOnly bool) (*TypeSet, error) {
	if len(patterns) == 0 {
		return nil, newError(NoShortNamesSpecified)
	}
	descs := r.match(patterns, primaryOnly)
	if len(descs) == 0 {
		return nil, newError(NoMatchingArchetypesForShortName, patterns)
	}
	return r.create(descs)
}

// ResolveID resolves a single archetype.
func (r *TypeResolver) ResolveID(id archetype.ID) (*TypeSet, error) {
	d, ok := r.catalog.Descriptor(id.ShortName())
	if !ok {
		return nil, newError(NoArchetypeForID, id.QualifiedName())
	}
	return r.create([]*archetype.Descriptor{d})
}

// ResolveLongName resolves archetypes by entity and concept name. An empty
// part matches anything; both may not be empty.
func (r *TypeResolver) ResolveLongName(entity, concept string, primaryOnly bool) (*TypeSet, error) {
	if entity == "" && concept == "" {
		return nil, newError(InvalidLongName)
	}
	descs := r.match([]string{longNamePattern(entity, concept)}, primaryOnly)
	if len(descs) == 0 {
		return nil, newError(NoMatchingArchetypesForLongName, entity, concept)
	}
	return r.create(descs)
}

// ResolveRange resolves the archetypes a collection or reference node may
// hold, from its declared range or, failing that, its filter. All
// nodes must declare one or the other.
func (r *TypeResolver) ResolveRange(nodes ...*archetype.NodeDescriptor) (*TypeSet, error) {
	var patterns []string
	for _, n := range nodes {
		switch {
		case len(n.ArchetypeRange) > 0:
			patterns = append(patterns, n.ArchetypeRange...)
		case n.Filter != "":
			patterns = append(patterns, n.Filter)
		default:
			return nil, newError(NoArchetypeRangeAssertion, n.Name, n.Path)
		}
	}
	if len(patterns) == 0 {
		return nil, newError(NoShortNamesSpecified)
	}
	descs := r.match(patterns, false)
	if len(descs) == 0 {
		return nil, newError(NoMatchingArchetypesForShortName, patterns)
	}
	return r.create(descs)
}

func (r *TypeResolver) match(patterns []string, primaryOnly bool) []*archetype.Descriptor {
	seen := make(map[string]bool)
	var descs []*archetype.Descriptor
	for _, p := range patterns {
		for _, name := range r.catalog.ShortNames(p, primaryOnly) {
			if seen[name] {
				continue
			}
			if d, ok := r.catalog.Descriptor(name); ok {
				seen[name] = true
				descs = append(descs, d)
			}
		}
	}
	archetype.SortByShortName(descs)
	return descs
}

func (r *TypeResolver) create(descs []*archetype.Descriptor) (*TypeSet, error) {
	implType, err := r.mapper.ImplementationType(descs)
	if err != nil {
		var cross *archetype.CrossTypeError
		if errors.As(err, &cross) {
			return nil, wrapError(CannotQueryAcrossTypes, err, cross.First, cross.Second)
		}
		return nil, wrapError(CannotQueryAcrossTypes, err, descs[0].ImplementationType, "?")
	}
	return &TypeSet{descriptors: descs, implType: implType}, nil
}

// longNamePattern builds "<entity>.<concept>", with '*' standing in for an
// empty part.
func longNamePattern(entity, concept string) string {
	if entity == "" {
		entity = "*"
	}
	if concept == "" {
		concept = "*"
	}
	return entity + "." + concept
}

// wildcard rewrites '*' to the SQL pattern character '%'.
func wildcard(s string) string {
	return strings.ReplaceAll(s, "*", "%")
}
