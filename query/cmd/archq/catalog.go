package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-archql/catalogdb"
	"github.com/CaliLuke/go-archql/internal/logging"
)

type catalogOptions struct {
	*rootOptions
	Catalog string
	DB      string
}

func newCatalogCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &catalogOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Save an archetype catalog to a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "archetype definition file or catalog database")
	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database to write")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runCatalog(cmd *cobra.Command, opts *catalogOptions) error {
	ctx := cmd.Context()
	reg, types, err := loadCatalog(ctx, opts.Catalog)
	if err != nil {
		return err
	}

	store, err := catalogdb.Open(ctx, opts.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, reg, types); err != nil {
		return err
	}
	logging.Info().Str("db", opts.DB).Msg("catalog saved")

	summary := struct {
		Archetypes int `json:"archetypes"`
		Types      int `json:"types"`
	}{reg.Len(), len(types.Types())}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %d archetypes and %d types to %s\n",
		summary.Archetypes, summary.Types, opts.DB)
	return err
}
