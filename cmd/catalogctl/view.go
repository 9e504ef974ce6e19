package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"CapStore/internal/catalog"
	"CapStore/internal/config"
)

type viewOpts struct {
	query        string
	sort         string
	missingPrice string
	databaseURL  string
	storefront   string
	asJSON       bool
	timeout      time.Duration
}

func newViewCmd(root *rootOpts) *cobra.Command {
	opts := &viewOpts{}

	cmd := &cobra.Command{
		Use:   "view <collection>",
		Short: "Fetch a collection and print its searched, sorted view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, root, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.query, "query", "q", "", "free-text search")
	f.StringVarP(&opts.sort, "sort", "s", string(catalog.SortRelevance), "sort order")
	f.StringVar(&opts.missingPrice, "missing-price", "zero", "where unpriced products sort: zero|last")
	f.StringVar(&opts.databaseURL, "database-url", "", "read products from postgres")
	f.StringVar(&opts.storefront, "storefront", "", "read products from a storefront endpoint")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "fetch timeout")
	return cmd
}

func runView(cmd *cobra.Command, root *rootOpts, opts *viewOpts, name string) error {
	cols, err := root.collections()
	if err != nil {
		return err
	}
	missing, err := config.ParseMissingPrice(opts.missingPrice)
	if err != nil {
		return err
	}
	sortKey, ok := catalog.ParseSort(opts.sort)
	if !ok {
		return fmt.Errorf("unknown sort %q, want one of %v", opts.sort, catalog.SortValues())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	repo, closeRepo, err := opts.repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	reg, err := catalog.NewRegistry(repo, cols, catalog.StoreOptions{
		FetchTimeout: opts.timeout,
		MissingPrice: missing,
	})
	if err != nil {
		return err
	}
	st, ok := reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownCollection, name)
	}

	st.SetSearchQuery(opts.query)
	st.SetSortBy(sortKey)
	if err := st.Fetch(ctx); err != nil {
		return err
	}

	snap := st.Snapshot()
	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st.Collection().Sections(snap.Products))
	}
	return printSections(cmd.OutOrStdout(), st.Collection(), snap)
}

func (o *viewOpts) repository(ctx context.Context) (catalog.Repository, func(), error) {
	switch {
	case o.databaseURL != "":
		pool, err := pgxpool.New(ctx, o.databaseURL)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgresRepository(pool), pool.Close, nil
	case o.storefront != "":
		return catalog.NewRemoteRepository(o.storefront), func() {}, nil
	default:
		return catalog.NewSeededMemRepository(), func() {}, nil
	}
}

func printSections(w io.Writer, c catalog.Collection, snap catalog.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "collection %s  query=%q  sort=%s  total=%d\n", snap.Collection, snap.Query, snap.Sort, snap.Products.Count())
	for _, sec := range c.Sections(snap.Products) {
		fmt.Fprintf(tw, "\n[%s]\t\t\t\n", sec.Category)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
		for _, p := range sec.Products {
			price := "-"
			if p.Price.Valid {
				price = p.Price.Decimal.StringFixed(2)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, price, p.Stock())
		}
	}
	return tw.Flush()
}
