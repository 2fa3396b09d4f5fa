package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-archql/adl"
	"github.com/CaliLuke/go-archql/archetype"
	"github.com/CaliLuke/go-archql/catalogdb"
	"github.com/CaliLuke/go-archql/internal/logging"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose bool
	Format  string
}

var validFormats = []string{"text", "json", "msgpack"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "archq",
		Short:         "Compile archetype queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			logging.SetGlobalLogger(logging.NewConsole(cmd.ErrOrStderr(), opts.Verbose))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log compilation details to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|msgpack)")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newCatalogCommand(opts))
	cmd.AddCommand(newGenCommand(opts))
	return cmd
}

// loadCatalog reads a catalog from an archetype definition file, or from a
// catalog database when path ends in .db.
func loadCatalog(ctx context.Context, path string) (*archetype.Registry, *archetype.TypeHierarchy, error) {
	if filepath.Ext(path) != ".db" {
		return adl.Load(path)
	}
	store, err := catalogdb.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}
