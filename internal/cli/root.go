// Package cli is the one-shot command line front end of the bridge. Every
// handled outcome, including failures, is printed to stdout as an envelope.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercabridge/internal/catalog"
	"mercabridge/internal/envelope"
)

// Service is the part of catalog.Service the commands need.
type Service interface {
	Handle(ctx context.Context, req catalog.Request) envelope.Envelope
}

type Options struct {
	DefaultPostcode string
	DefaultLimit    int
	ExposeDetails   bool
}

type flags struct {
	postcode string
	limit    int
	details  bool
}

// NewRootCommand builds the command tree. Envelopes go to out.
func NewRootCommand(svc Service, out io.Writer, opts Options) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "mercabridge",
		Short: "Query the Mercadona store and print normalized JSON",
		Long: `mercabridge looks up products in the Mercadona online store for a
postcode and prints the result as a JSON envelope:

  {"success": true, "data": ...}
  {"success": false, "error": "...", "details": "..."}`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&f.postcode, "postcode", opts.DefaultPostcode, "postcode used to pick the warehouse")
	pf.IntVar(&f.limit, "limit", opts.DefaultLimit, "maximum number of results")
	pf.BoolVar(&f.details, "details", opts.ExposeDetails, "include diagnostic details in failures")

	root.AddCommand(
		actionCommand(svc, f, catalog.ActionSearch, "search [query]", "Search products by text"),
		actionCommand(svc, f, catalog.ActionDetail, "detail [id]", "Show one product"),
		actionCommand(svc, f, catalog.ActionNew, "new", "List new arrivals"),
	)
	return root
}

func actionCommand(svc Service, f *flags, action catalog.Action, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := catalog.Request{Action: action, Postcode: f.postcode, Limit: f.limit}
			if len(args) == 1 {
				req.Query = args[0]
			}

			env := svc.Handle(cmd.Context(), req)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(env.Public(f.details).MarshalIndent()))
			return err
		},
	}
}
