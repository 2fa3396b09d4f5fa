package ast

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/CaliLuke/go-archql/archetype"
)

// DecodeYAML reads a query document.
//
// Every constraint is written as a mapping with a single key naming its
// variant:
//
//	distinct: false
//	root:
//	  shortNames:
//	    names: [party.customerperson]
//	    alias: c
//	    active: true
//	    constraints:
//	      - node: {name: lastName, op: EQ, value: Smith}
//	      - join:
//	          name: patients
//	          constraints:
//	            - node: {name: name, op: EQ, value: "Fido*"}
//	      - sort: {name: lastName}
//
// Archetype variants are shortNames, id, longName and object. The others
// are and, or, node, ref, idEquals, join, participation, shortNameIs,
// select and sort. Unquoted timestamps in values decode to time.Time;
// quote them to compare against strings.
func DecodeYAML(r io.Reader) (Query, error) {
	var doc yamlQuery
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Query{}, fmt.Errorf("ast: decoding query: %w", err)
	}
	if doc.Root.c == nil {
		return Query{Distinct: doc.Distinct}, nil
	}
	root, ok := doc.Root.c.(ArchetypeConstraint)
	if !ok {
		return Query{}, fmt.Errorf("ast: root must be an archetype constraint, got %T", doc.Root.c)
	}
	return Query{Root: root, Distinct: doc.Distinct}, nil
}

// ParseYAML is like DecodeYAML but reads from a byte slice.
func ParseYAML(data []byte) (Query, error) {
	return DecodeYAML(bytes.NewReader(data))
}

type yamlQuery struct {
	Distinct bool     `yaml:"distinct"`
	Root     yamlItem `yaml:"root"`
}

type yamlRef struct {
	Archetype string `yaml:"archetype"`
	ID        int64  `yaml:"id"`
	LinkID    string `yaml:"linkId"`
}

func (r yamlRef) reference() (archetype.Reference, error) {
	id, err := archetype.ParseID(r.Archetype)
	if err != nil {
		return archetype.Reference{}, err
	}
	return archetype.Reference{Archetype: id, ID: r.ID, LinkID: r.LinkID}, nil
}

type yamlArchetype struct {
	Names       []string   `yaml:"names"`
	ID          string     `yaml:"id"`
	Entity      string     `yaml:"entity"`
	Concept     string     `yaml:"concept"`
	Ref         *yamlRef   `yaml:"ref"`
	Alias       string     `yaml:"alias"`
	Active      bool       `yaml:"active"`
	Primary     bool       `yaml:"primary"`
	Constraints []yamlItem `yaml:"constraints"`
}

type yamlCompare struct {
	Alias     string   `yaml:"alias"`
	Name      string   `yaml:"name"`
	Op        string   `yaml:"op"`
	Value     any      `yaml:"value"`
	Values    []any    `yaml:"values"`
	Ref       *yamlRef `yaml:"ref"`
	Archetype string   `yaml:"archetype"`
	Field     string   `yaml:"field"`
}

type yamlIDEquals struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Op     string `yaml:"op"`
}

type yamlJoin struct {
	Name        string     `yaml:"name"`
	Alias       string     `yaml:"alias"`
	Kind        string     `yaml:"kind"`
	Archetype   *yamlItem  `yaml:"archetype"`
	Constraints []yamlItem `yaml:"constraints"`
}

type yamlSelect struct {
	Alias     string `yaml:"alias"`
	Name      string `yaml:"name"`
	Reference bool   `yaml:"reference"`
}

type yamlSort struct {
	Alias string `yaml:"alias"`
	Name  string `yaml:"name"`
	Desc  bool   `yaml:"desc"`
}

// yamlItem decodes one single-key constraint mapping.
type yamlItem struct {
	c Constraint
}

func (i *yamlItem) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return fmt.Errorf("line %d: constraint must be a mapping with a single key", n.Line)
	}
	key, body := n.Content[0].Value, n.Content[1]
	c, err := decodeConstraint(key, body)
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", n.Line, key, err)
	}
	i.c = c
	return nil
}

func children(items []yamlItem) []Constraint {
	if len(items) == 0 {
		return nil
	}
	result := make([]Constraint, len(items))
	for i, item := range items {
		result[i] = item.c
	}
	return result
}

func parseOpOr(s string, def Op) (Op, error) {
	if s == "" {
		return def, nil
	}
	return ParseOp(s)
}

// variantFields lists the keys accepted by each constraint variant.
// yaml.Node.Decode does not honour the decoder's KnownFields setting, so
// bodies are checked against this table before decoding.
var variantFields = map[string][]string{
	"shortNames":    {"names", "alias", "active", "primary", "constraints"},
	"id":            {"id", "alias", "active", "constraints"},
	"longName":      {"entity", "concept", "alias", "active", "primary", "constraints"},
	"object":        {"ref", "alias", "active", "constraints"},
	"and":           nil,
	"or":            nil,
	"node":          {"alias", "name", "op", "value", "values"},
	"ref":           {"alias", "name", "op", "ref", "archetype"},
	"idEquals":      {"source", "target", "op"},
	"join":          {"name", "alias", "kind", "archetype", "constraints"},
	"participation": {"alias", "field", "op", "value"},
	"shortNameIs":   {"op", "value"},
	"select":        {"alias", "name", "reference"},
	"sort":          {"alias", "name", "desc"},
}

func checkFields(body *yaml.Node, allowed []string) error {
	if body.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(body.Content); i += 2 {
		k := body.Content[i]
		if !slices.Contains(allowed, k.Value) {
			return fmt.Errorf("line %d: unknown field %q", k.Line, k.Value)
		}
	}
	return nil
}

func decodeConstraint(key string, body *yaml.Node) (Constraint, error) {
	allowed, ok := variantFields[key]
	if !ok {
		return nil, fmt.Errorf("unknown constraint")
	}
	if err := checkFields(body, allowed); err != nil {
		return nil, err
	}
	switch key {
	case "shortNames", "id", "longName", "object":
		var a yamlArchetype
		if err := body.Decode(&a); err != nil {
			return nil, err
		}
		return decodeArchetype(key, a)

	case "and", "or":
		var items []yamlItem
		if err := body.Decode(&items); err != nil {
			return nil, err
		}
		if key == "and" {
			return And{Children: children(items)}, nil
		}
		return Or{Children: children(items)}, nil

	case "node":
		var v yamlCompare
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		op, err := parseOpOr(v.Op, EQ)
		if err != nil {
			return nil, err
		}
		values := v.Values
		if values == nil && v.Value != nil {
			values = []any{v.Value}
		}
		return PropertyComparison{Alias: v.Alias, Node: v.Name, Op: op, Values: values}, nil

	case "ref":
		var v yamlCompare
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		op, err := parseOpOr(v.Op, EQ)
		if err != nil {
			return nil, err
		}
		c := ObjectReferenceComparison{Alias: v.Alias, Node: v.Name, Op: op}
		if v.Ref != nil {
			ref, err := v.Ref.reference()
			if err != nil {
				return nil, err
			}
			c.Ref = &ref
		} else if v.Archetype != "" {
			id, err := archetype.ParseID(v.Archetype)
			if err != nil {
				return nil, err
			}
			c.Archetype = id
		}
		return c, nil

	case "idEquals":
		var v yamlIDEquals
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		op, err := parseOpOr(v.Op, EQ)
		if err != nil {
			return nil, err
		}
		return IDEquality{Source: v.Source, Target: v.Target, Op: op}, nil

	case "join":
		var v yamlJoin
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		j := CollectionJoin{Alias: v.Alias, Node: v.Name, Children: children(v.Constraints)}
		switch v.Kind {
		case "", "inner":
			j.Kind = InnerJoin
		case "left":
			j.Kind = LeftOuterJoin
		default:
			return nil, fmt.Errorf("unknown join kind %q", v.Kind)
		}
		if v.Archetype != nil {
			a, ok := v.Archetype.c.(ArchetypeConstraint)
			if !ok {
				return nil, fmt.Errorf("join archetype must be an archetype constraint, got %T", v.Archetype.c)
			}
			j.Archetype = a
		}
		return j, nil

	case "participation":
		var v yamlCompare
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		field, ok := ParseParticipationField(v.Field)
		if !ok {
			return nil, fmt.Errorf("unknown participation field %q", v.Field)
		}
		op, err := parseOpOr(v.Op, EQ)
		if err != nil {
			return nil, err
		}
		return ParticipationFieldComparison{Alias: v.Alias, Field: field, Op: op, Value: v.Value}, nil

	case "shortNameIs":
		var v yamlCompare
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		op, err := parseOpOr(v.Op, EQ)
		if err != nil {
			return nil, err
		}
		s, ok := v.Value.(string)
		if !ok {
			return nil, fmt.Errorf("value must be a string, got %T", v.Value)
		}
		return ArchetypeNodeComparison{Op: op, Value: s}, nil

	case "select":
		var v yamlSelect
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		return Select{Alias: v.Alias, Node: v.Name, Reference: v.Reference}, nil

	case "sort":
		var v yamlSort
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		return Sort{Alias: v.Alias, Node: v.Name, Ascending: !v.Desc}, nil
	}
	return nil, fmt.Errorf("unknown constraint")
}

func decodeArchetype(key string, a yamlArchetype) (ArchetypeConstraint, error) {
	base := ArchetypeBase{Alias: a.Alias, ActiveOnly: a.Active, Children: children(a.Constraints)}
	switch key {
	case "shortNames":
		if len(a.Names) == 0 {
			return nil, fmt.Errorf("names is required")
		}
		return ArchetypeByShortNames{ArchetypeBase: base, ShortNames: a.Names, PrimaryOnly: a.Primary}, nil
	case "id":
		id, err := archetype.ParseID(a.ID)
		if err != nil {
			return nil, err
		}
		return ArchetypeByID{ArchetypeBase: base, ID: id}, nil
	case "longName":
		return ArchetypeByLongName{ArchetypeBase: base, Entity: a.Entity, Concept: a.Concept, PrimaryOnly: a.Primary}, nil
	default:
		if a.Ref == nil {
			return nil, fmt.Errorf("ref is required")
		}
		ref, err := a.Ref.reference()
		if err != nil {
			return nil, err
		}
		return ObjectByReference{ArchetypeBase: base, Ref: ref}, nil
	}
}
