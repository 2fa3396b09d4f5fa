package adl

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Grammar ---

// File is the top-level grammar of an archetype definition file.
type File struct {
	Defs []*Def `parser:"@@*"`
}

// Def is a single top-level definition.
type Def struct {
	Type      *TypeDef      `parser:"  @@"`
	Archetype *ArchetypeDef `parser:"| @@"`
}

// TypeDef parses: type Name [sub Parent] [@noactive];
type TypeDef struct {
	Name     string `parser:"'type' @Ident"`
	Parent   string `parser:"('sub' @Ident)?"`
	NoActive bool   `parser:"@'@noactive'? ';'"`
}

// ArchetypeDef parses: archetype short.name : ImplType [@primary] { node... }
type ArchetypeDef struct {
	ShortName string     `parser:"'archetype' @Ident"`
	ImplType  string     `parser:"':' @Ident"`
	Primary   bool       `parser:"@'@primary'?"`
	Nodes     []*NodeDef `parser:"'{' @@* '}'"`
}

// NodeDef parses a node declaration. Every clause after the name is optional:
//
//	node name [path "/p"] [type T] [@collection|@reference|@date]* [range "a", "b"] [filter "f"];
type NodeDef struct {
	Name   string   `parser:"'node' @Ident"`
	Path   string   `parser:"('path' @String)?"`
	Type   string   `parser:"('type' @Ident)?"`
	Flags  []string `parser:"@('@collection' | '@reference' | '@date')*"`
	Range  []string `parser:"('range' @String (',' @String)*)?"`
	Filter string   `parser:"('filter' @String)? ';'"`
}

var adlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Annot", Pattern: `@[a-zA-Z]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
	{Name: "Punct", Pattern: `[;:{},]`},
})

var adlParser = participle.MustBuild[File](
	participle.Lexer(adlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// Parse parses archetype definitions from a string.
func Parse(input string) (*Schema, error) {
	return parse("catalog.adl", input)
}

// ParseFile reads and parses the archetype definitions in path.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(path, string(data))
}

func parse(filename, input string) (*Schema, error) {
	file, err := adlParser.ParseString(filename, input)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return convertFile(file), nil
}

// --- Conversion ---

func convertFile(file *File) *Schema {
	schema := &Schema{}
	for _, def := range file.Defs {
		switch {
		case def.Type != nil:
			schema.Types = append(schema.Types, TypeSpec{
				Name:     def.Type.Name,
				Parent:   def.Type.Parent,
				NoActive: def.Type.NoActive,
			})
		case def.Archetype != nil:
			schema.Archetypes = append(schema.Archetypes, convertArchetype(def.Archetype))
		}
	}
	return schema
}

func convertArchetype(a *ArchetypeDef) ArchetypeSpec {
	spec := ArchetypeSpec{
		ShortName: a.ShortName,
		ImplType:  a.ImplType,
		Primary:   a.Primary,
	}
	for _, n := range a.Nodes {
		spec.Nodes = append(spec.Nodes, convertNode(n))
	}
	return spec
}

func convertNode(n *NodeDef) NodeSpec {
	spec := NodeSpec{
		Name:   n.Name,
		Path:   n.Path,
		Type:   n.Type,
		Range:  n.Range,
		Filter: n.Filter,
	}
	for _, f := range n.Flags {
		switch f {
		case "@collection":
			spec.Collection = true
		case "@reference":
			spec.Reference = true
		case "@date":
			spec.Date = true
		}
	}
	return spec
}
