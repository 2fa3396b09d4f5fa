// Package adl parses archetype definition files and loads them into an
// archetype registry and type hierarchy.
package adl

// Schema holds the definitions read from one archetype definition file.
type Schema struct {
	// Types lists implementation types in declaration order.
	Types []TypeSpec
	// Archetypes lists archetype definitions in declaration order.
	Archetypes []ArchetypeSpec
}

// TypeSpec describes a persisted implementation type.
type TypeSpec struct {
	Name     string
	Parent   string
	NoActive bool
}

// ArchetypeSpec describes one archetype and its nodes.
type ArchetypeSpec struct {
	ShortName string
	ImplType  string
	Primary   bool
	Nodes     []NodeSpec
}

// NodeSpec describes one archetype node.
type NodeSpec struct {
	Name string
	// Path defaults to "/" + Name when empty.
	Path       string
	Type       string
	Collection bool
	Reference  bool
	Date       bool
	Range      []string
	Filter     string
}

// Archetype returns the named archetype definition.
func (s *Schema) Archetype(shortName string) (ArchetypeSpec, bool) {
	for _, a := range s.Archetypes {
		if a.ShortName == shortName {
			return a, true
		}
	}
	return ArchetypeSpec{}, false
}
