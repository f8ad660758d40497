package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"orderdesk/internal/domain"
	"orderdesk/internal/tui"
)

func newLookupCmd(opts *remoteOptions) *cobra.Command {
	var (
		pages      int
		filter     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <kind>",
		Short: "List customers, accounts, organizations, warehouses, price types or products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}

			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			if err := sess.Open(ctx, kind); err != nil {
				return fmt.Errorf("loading %s: %w", kind, err)
			}
			for i := 1; i < pages; i++ {
				if err := sess.LoadMore(ctx, kind); err != nil {
					return fmt.Errorf("loading %s: %w", kind, err)
				}
			}

			listing, err := sess.Listing(kind, filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return renderJSON(cmd, listing)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderListing(listing))
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive filter over the loaded entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
