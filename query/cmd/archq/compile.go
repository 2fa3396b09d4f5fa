package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-archql/ast"
	"github.com/CaliLuke/go-archql/internal/logging"
	"github.com/CaliLuke/go-archql/query"
)

type compileOptions struct {
	*rootOptions
	Catalog  string
	Distinct bool
}

// compileResult is the json form of a compiled query.
type compileResult struct {
	Text           string              `json:"text"`
	Params         map[string]any      `json:"params"`
	SelectNames    []string            `json:"selectNames"`
	RefSelectNames []string            `json:"refSelectNames,omitempty"`
	SelectTypes    map[string][]string `json:"selectTypes"`
}

func newCompileCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &compileOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a YAML query document",
		Long: `Compile a YAML constraint tree against an archetype catalog and print
the query text and its parameters. Use "-" to read the query from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "archetype definition file or catalog database")
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "select distinct rows")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func runCompile(cmd *cobra.Command, opts *compileOptions, path string) error {
	reg, types, err := loadCatalog(cmd.Context(), opts.Catalog)
	if err != nil {
		return err
	}
	logging.Debug().Int("archetypes", reg.Len()).Str("catalog", opts.Catalog).Msg("loaded catalog")

	q, err := readQuery(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	var compilerOpts []query.Option
	if opts.Distinct {
		compilerOpts = append(compilerOpts, query.WithDistinct())
	}
	compiled, err := query.NewCompiler(reg, types, compilerOpts...).Compile(q)
	if err != nil {
		logging.Err(err).Str("query", path).Msg("compile failed")
		return err
	}
	return writeCompiled(cmd.OutOrStdout(), opts.Format, compiled)
}

func readQuery(stdin io.Reader, path string) (ast.Query, error) {
	if path == "-" {
		return ast.DecodeYAML(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return ast.Query{}, fmt.Errorf("read query: %w", err)
	}
	defer f.Close()
	return ast.DecodeYAML(f)
}

func writeCompiled(w io.Writer, format string, q *query.CompiledQuery) error {
	switch format {
	case "msgpack":
		data, err := q.MarshalMsgpack()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(compileResult{
			Text:           q.Text(),
			Params:         q.Params(),
			SelectNames:    q.SelectNames(),
			RefSelectNames: q.RefSelectNames(),
			SelectTypes:    q.SelectTypes(),
		})
	}

	fmt.Fprintln(w, q.Text())
	params := q.Params()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  :%s = %v\n", name, params[name])
	}
	return nil
}
