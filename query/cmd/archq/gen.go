package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-archql/adl"
)

type genOptions struct {
	*rootOptions
	Catalog string
	Package string
	Output  string
}

func newGenCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &genOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go constants for a catalog's archetypes and nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "archetype definition file or catalog database")
	cmd.Flags().StringVar(&opts.Package, "pkg", "archetypes", "package name for generated code")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output Go file (default: stdout)")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func runGen(cmd *cobra.Command, opts *genOptions) error {
	reg, _, err := loadCatalog(cmd.Context(), opts.Catalog)
	if err != nil {
		return err
	}

	cfg := adl.GenConfig{PackageName: opts.Package}
	if filepath.Ext(opts.Catalog) != ".db" {
		source, err := os.ReadFile(opts.Catalog)
		if err != nil {
			return err
		}
		cfg.Source = string(source)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return adl.RenderConstants(w, reg, cfg)
}
