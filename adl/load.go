package adl

import (
	"fmt"

	"github.com/CaliLuke/go-archql/archetype"
)

// Load defines the schema's types in h and registers its archetypes in reg.
// Types may be declared in any order; each is defined after its parent.
// Either target may be nil to skip it.
func (s *Schema) Load(reg *archetype.Registry, h *archetype.TypeHierarchy) error {
	if h != nil {
		if err := s.defineTypes(h); err != nil {
			return err
		}
	}
	if reg == nil {
		return nil
	}
	for _, a := range s.Archetypes {
		if h != nil {
			if _, ok := h.Lookup(a.ImplType); !ok {
				return fmt.Errorf("archetype %s: %w", a.ShortName,
					&archetype.NotFoundError{Kind: "type", Name: a.ImplType})
			}
		}
		if err := reg.Register(a.Descriptor()); err != nil {
			return fmt.Errorf("load archetype %s: %w", a.ShortName, err)
		}
	}
	return nil
}

// defineTypes defines types parents-first. A parent that is neither
// declared in the schema nor already present in h is an error.
func (s *Schema) defineTypes(h *archetype.TypeHierarchy) error {
	declared := make(map[string]bool, len(s.Types))
	for _, t := range s.Types {
		declared[t.Name] = true
	}
	pending := s.Types
	for len(pending) > 0 {
		var next []TypeSpec
		for _, t := range pending {
			if t.Parent != "" {
				if _, ok := h.Lookup(t.Parent); !ok {
					if !declared[t.Parent] {
						return fmt.Errorf("type %s: %w", t.Name,
							&archetype.NotFoundError{Kind: "type", Name: t.Parent})
					}
					next = append(next, t)
					continue
				}
			}
			err := h.Define(archetype.ImplType{Name: t.Name, Parent: t.Parent, NoActive: t.NoActive})
			if err != nil {
				return fmt.Errorf("define type %s: %w", t.Name, err)
			}
		}
		if len(next) == len(pending) {
			return fmt.Errorf("type %s: cyclic parent chain", next[0].Name)
		}
		pending = next
	}
	return nil
}

// Descriptor converts the definition into an archetype descriptor.
func (a ArchetypeSpec) Descriptor() *archetype.Descriptor {
	d := archetype.NewDescriptor(a.ShortName, a.ImplType, a.Primary)
	for _, n := range a.Nodes {
		path := n.Path
		if path == "" {
			path = "/" + n.Name
		}
		d.AddNode(&archetype.NodeDescriptor{
			Name:            n.Name,
			Path:            path,
			Type:            n.Type,
			Collection:      n.Collection,
			ObjectReference: n.Reference,
			Date:            n.Date,
			ArchetypeRange:  append([]string(nil), n.Range...),
			Filter:          n.Filter,
		})
	}
	return d
}

// Load parses the file at path and loads it into fresh catalog structures.
func Load(path string) (*archetype.Registry, *archetype.TypeHierarchy, error) {
	schema, err := ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	reg := archetype.NewRegistry()
	h := archetype.NewTypeHierarchy()
	if err := schema.Load(reg, h); err != nil {
		return nil, nil, err
	}
	return reg, h, nil
}
