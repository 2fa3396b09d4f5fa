package archetype

import (
	"errors"
	"sort"
	"strings"
)

// ErrNestedPath is returned by NodeDescriptor.Property when the node is not
// stored as a top-level property of its object.
var ErrNestedPath = errors.New("archetype: node path is not top-level")

// NodeDescriptor contains metadata about a single named field of an archetype.
type NodeDescriptor struct {
	// Name is the node name used in query constraints.
	Name string
	// Path is the storage path, e.g. "/name".
	Path string
	// Type names the value type of the node. Two archetypes only share a
	// node for query purposes if both Path and Type agree.
	Type string
	// Collection is true if the node holds a collection of objects.
	Collection bool
	// ObjectReference is true if the node holds a reference to another object.
	ObjectReference bool
	// Date is true if the node holds a date/time value.
	Date bool
	// ArchetypeRange lists the short names (possibly wildcarded) the node's
	// values may have. Only meaningful for collection and reference nodes.
	ArchetypeRange []string
	// Filter is a short name (possibly wildcarded) that restricts the
	// values of the node when no range is declared.
	Filter string
}

// Property returns the top-level storage property of the node: its path
// without the leading '/'. It fails with ErrNestedPath for nested paths.
func (n *NodeDescriptor) Property() (string, error) {
	p := strings.TrimPrefix(n.Path, "/")
	if p == "" {
		p = n.Name
	}
	if strings.Contains(p, "/") {
		return "", ErrNestedPath
	}
	return p, nil
}

// HasRange reports whether the node declares an archetype range or a filter.
func (n *NodeDescriptor) HasRange() bool {
	return len(n.ArchetypeRange) > 0 || n.Filter != ""
}

// Descriptor describes one archetype.
type Descriptor struct {
	// ShortName is the archetype short name, e.g. "party.customerperson".
	ShortName string
	// ImplementationType is the persisted type that stores instances.
	ImplementationType string
	// Primary is true for archetypes that may be queried directly; secondary
	// archetypes only exist within other objects.
	Primary bool

	nodes map[string]*NodeDescriptor
	order []string
}

// NewDescriptor creates a descriptor with the given nodes.
func NewDescriptor(shortName, implType string, primary bool, nodes ...*NodeDescriptor) *Descriptor {
	d := &Descriptor{
		ShortName:          shortName,
		ImplementationType: implType,
		Primary:            primary,
		nodes:              make(map[string]*NodeDescriptor, len(nodes)),
	}
	for _, n := range nodes {
		d.AddNode(n)
	}
	return d
}

// AddNode adds or replaces a node descriptor.
func (d *Descriptor) AddNode(n *NodeDescriptor) {
	if d.nodes == nil {
		d.nodes = make(map[string]*NodeDescriptor)
	}
	if _, ok := d.nodes[n.Name]; !ok {
		d.order = append(d.order, n.Name)
	}
	d.nodes[n.Name] = n
}

// Node returns the named node descriptor, or nil if the archetype has none.
func (d *Descriptor) Node(name string) *NodeDescriptor {
	return d.nodes[name]
}

// Nodes returns the node descriptors in declaration order.
func (d *Descriptor) Nodes() []*NodeDescriptor {
	result := make([]*NodeDescriptor, 0, len(d.order))
	for _, name := range d.order {
		result = append(result, d.nodes[name])
	}
	return result
}

// SortByShortName orders descriptors by short name.
func SortByShortName(descs []*Descriptor) {
	sort.Slice(descs, func(i, j int) bool {
		return descs[i].ShortName < descs[j].ShortName
	})
}
