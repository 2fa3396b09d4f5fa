package adl

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"go/format"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/CaliLuke/go-archql/archetype"
)

// GenConfig specifies settings for generating catalog constants.
type GenConfig struct {
	// PackageName is the Go package name for the generated code.
	PackageName string
	// Source is the raw catalog text. If non-empty a CatalogHash constant
	// is emitted.
	Source string
}

// ConstCtx holds a Go constant name and its string value.
type ConstCtx struct {
	Name  string
	Value string
}

// KVCtx holds a map entry for the generated source.
type KVCtx struct {
	Key   string
	Value string
}

// KVSliceCtx holds a map entry with a list value.
type KVSliceCtx struct {
	Key    string
	Values []string
}

// GenData holds everything the constants template renders.
type GenData struct {
	PackageName         string
	CatalogHash         string
	Archetypes          []ConstCtx
	Nodes               []ConstCtx
	ImplementationTypes []KVCtx
	ArchetypeNodes      []KVSliceCtx
	Primary             []string
}

// BuildGenData collects the constants for every archetype in reg. It fails
// if two distinct names map to the same Go identifier.
func BuildGenData(reg *archetype.Registry, cfg GenConfig) (*GenData, error) {
	data := &GenData{PackageName: cfg.PackageName}
	if data.PackageName == "" {
		data.PackageName = "archetypes"
	}
	if cfg.Source != "" {
		h := sha256.Sum256([]byte(cfg.Source))
		data.CatalogHash = fmt.Sprintf("sha256:%x", h[:8])
	}

	used := make(map[string]string)
	claim := func(name, value string) error {
		if prev, ok := used[name]; ok && prev != value {
			return fmt.Errorf("generate constants: %q and %q both map to %s", prev, value, name)
		}
		used[name] = value
		return nil
	}

	nodes := make(map[string]bool)
	for _, d := range reg.Descriptors() {
		name := "Archetype" + ExportName(d.ShortName)
		if err := claim(name, d.ShortName); err != nil {
			return nil, err
		}
		data.Archetypes = append(data.Archetypes, ConstCtx{Name: name, Value: d.ShortName})
		data.ImplementationTypes = append(data.ImplementationTypes, KVCtx{Key: d.ShortName, Value: d.ImplementationType})
		if d.Primary {
			data.Primary = append(data.Primary, d.ShortName)
		}

		var names []string
		for _, n := range d.Nodes() {
			names = append(names, n.Name)
			nodes[n.Name] = true
		}
		data.ArchetypeNodes = append(data.ArchetypeNodes, KVSliceCtx{Key: d.ShortName, Values: names})
	}

	nodeNames := make([]string, 0, len(nodes))
	for n := range nodes {
		nodeNames = append(nodeNames, n)
	}
	sort.Strings(nodeNames)
	for _, n := range nodeNames {
		name := "Node" + ExportName(n)
		if err := claim(name, n); err != nil {
			return nil, err
		}
		data.Nodes = append(data.Nodes, ConstCtx{Name: name, Value: n})
	}
	return data, nil
}

// RenderConstants writes a gofmt-formatted Go file declaring constants for
// the archetypes and nodes in reg.
func RenderConstants(w io.Writer, reg *archetype.Registry, cfg GenConfig) error {
	data, err := BuildGenData(reg, cfg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := constantsTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render constants: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format constants: %w", err)
	}
	_, err = w.Write(src)
	return err
}

func goStrSlice(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

var constantsTemplate = template.Must(template.New("constants").Funcs(template.FuncMap{
	"goStrSlice": goStrSlice,
}).Parse(`// Code generated by archq; DO NOT EDIT.

package {{.PackageName}}
{{- if .CatalogHash}}

// CatalogHash is a fingerprint of the catalog source used to generate this file.
const CatalogHash = "{{.CatalogHash}}"
{{- end}}

// --- Archetype short names ---

const (
{{- range .Archetypes}}
	{{.Name}} = {{printf "%q" .Value}}
{{- end}}
)
{{- if .Nodes}}

// --- Node names ---

const (
{{- range .Nodes}}
	{{.Name}} = {{printf "%q" .Value}}
{{- end}}
)
{{- end}}

// ImplementationTypes maps archetype short names to the type that stores them.
var ImplementationTypes = map[string]string{
{{- range .ImplementationTypes}}
	{{printf "%q" .Key}}: {{printf "%q" .Value}},
{{- end}}
}

// PrimaryArchetypes lists the archetypes that may be queried directly.
var PrimaryArchetypes = []string{{goStrSlice .Primary}}

// ArchetypeNodes maps archetype short names to their nodes in declaration order.
var ArchetypeNodes = map[string][]string{
{{- range .ArchetypeNodes}}
	{{printf "%q" .Key}}: {{goStrSlice .Values}},
{{- end}}
}
`))
