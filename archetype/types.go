package archetype

import (
	"sort"
	"sync"
)

// TypeMapper maps archetypes to the implementation types that persist them.
type TypeMapper interface {
	// ImplementationType returns the single implementation type to query
	// for the given descriptors. It fails if they do not share a type.
	ImplementationType(descs []*Descriptor) (string, error)
	// HasActiveFlag reports whether instances of the type carry an
	// "active" flag that may be constrained.
	HasActiveFlag(typeName string) bool
}

// ImplType is one node in a TypeHierarchy.
type ImplType struct {
	Name     string
	Parent   string
	NoActive bool
}

// TypeHierarchy is a TypeMapper backed by a single-inheritance tree of
// implementation types. It is safe for concurrent use.
type TypeHierarchy struct {
	mu    sync.RWMutex
	types map[string]*ImplType
}

// NewTypeHierarchy returns an empty hierarchy.
func NewTypeHierarchy() *TypeHierarchy {
	return &TypeHierarchy{types: make(map[string]*ImplType)}
}

// Define adds an implementation type. The parent, if any, must already be defined.
func (h *TypeHierarchy) Define(t ImplType) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.types[t.Name]; ok {
		if *existing == t {
			return nil
		}
		return &DuplicateError{Kind: "type", Name: t.Name}
	}
	if t.Parent != "" {
		if _, ok := h.types[t.Parent]; !ok {
			return &NotFoundError{Kind: "type", Name: t.Parent}
		}
	}
	h.types[t.Name] = &t
	return nil
}

// MustDefine calls Define for each type and panics on error.
func (h *TypeHierarchy) MustDefine(types ...ImplType) {
	for _, t := range types {
		if err := h.Define(t); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the named type.
func (h *TypeHierarchy) Lookup(name string) (ImplType, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.types[name]
	if !ok {
		return ImplType{}, false
	}
	return *t, true
}

// Types returns all defined types ordered so that parents precede children.
func (h *TypeHierarchy) Types() []ImplType {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.types))
	for name := range h.types {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []ImplType
	done := make(map[string]bool, len(names))
	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		t := h.types[name]
		if t.Parent != "" {
			visit(t.Parent)
		}
		done[name] = true
		result = append(result, *t)
	}
	for _, name := range names {
		visit(name)
	}
	return result
}

// SubtypesOf returns the direct subtypes of the named type, sorted.
func (h *TypeHierarchy) SubtypesOf(name string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var result []string
	for _, t := range h.types {
		if t.Parent == name {
			result = append(result, t.Name)
		}
	}
	sort.Strings(result)
	return result
}

// IsAncestor reports whether ancestor is a proper ancestor of name.
func (h *TypeHierarchy) IsAncestor(ancestor, name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isAncestor(ancestor, name)
}

func (h *TypeHierarchy) isAncestor(ancestor, name string) bool {
	t, ok := h.types[name]
	for ok && t.Parent != "" {
		if t.Parent == ancestor {
			return true
		}
		t, ok = h.types[t.Parent]
	}
	return false
}

// ImplementationType implements TypeMapper. Starting from the first
// descriptor's type, each further type either equals the chosen one, is
// its ancestor (and becomes the chosen one), or is its descendant.
// Any other relationship is a CrossTypeError.
func (h *TypeHierarchy) ImplementationType(descs []*Descriptor) (string, error) {
	if len(descs) == 0 {
		return "", &NotFoundError{Kind: "archetype", Name: ""}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	chosen := descs[0].ImplementationType
	for _, d := range descs[1:] {
		next := d.ImplementationType
		switch {
		case next == chosen:
		case h.isAncestor(next, chosen):
			chosen = next
		case h.isAncestor(chosen, next):
		default:
			return "", &CrossTypeError{First: chosen, Second: next}
		}
	}
	return chosen, nil
}

// HasActiveFlag implements TypeMapper. Types not defined in the
// hierarchy are assumed to carry the flag.
func (h *TypeHierarchy) HasActiveFlag(typeName string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.types[typeName]
	if !ok {
		return true
	}
	return !t.NoActive
}
