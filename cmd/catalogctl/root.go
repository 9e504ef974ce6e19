package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"CapStore/internal/catalog"
	"CapStore/internal/config"
)

type rootOpts struct {
	collectionsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect and manage storefront collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.collectionsFile, "collections", "collections.yaml", "collections declaration file")

	cmd.AddCommand(
		newCollectionsCmd(opts),
		newViewCmd(opts),
		newInvalidateCmd(),
		newTokenCmd(),
	)
	return cmd
}

func (o *rootOpts) collections() ([]catalog.Collection, error) {
	return config.LoadCollections(o.collectionsFile)
}

func newCollectionsCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List configured collections and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cols, err := opts.collections()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cols {
				fmt.Fprintf(out, "%s\tcatch-all=%s\n", c.Name, c.CatchAll)
				for _, k := range c.Categories {
					fmt.Fprintf(out, "  %s\n", k)
				}
			}
			return nil
		},
	}
}
