package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orderdesk/internal/domain"
	"orderdesk/internal/importer"
	"orderdesk/internal/order"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tui"
)

type submitOutput struct {
	Draft  order.Snapshot   `json:"draft"`
	Result *workflow.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func newSubmitCmd(opts *remoteOptions) *cobra.Command {
	var (
		customer     int64
		account      int64
		organization int64
		warehouse    int64
		priceType    int64
		items        []string
		itemsFile    string
		post         bool
		dryRun       bool
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Build a sales order and send it to TableCRM",
		Long: "Select the order references by id, add items with --item id[:qty] or a CSV file, " +
			"then create the document (or create and post it with --post).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()
			ctx := cmd.Context()

			selections := []struct {
				kind domain.Kind
				id   int64
			}{
				{domain.KindCustomers, customer},
				{domain.KindAccounts, account},
				{domain.KindOrganizations, organization},
				{domain.KindWarehouses, warehouse},
				{domain.KindPriceTypes, priceType},
			}
			for _, sel := range selections {
				if sel.id == 0 {
					continue
				}
				if err := sess.Select(ctx, sel.kind, domain.ID(sel.id)); err != nil {
					return fmt.Errorf("selecting %s: %w", sel.kind, err)
				}
			}

			if err := addItems(ctx, sess, items, itemsFile); err != nil {
				return err
			}
			// The loyalty card lookup runs in the background after the customer is picked.
			sess.WaitIdle()

			out := submitOutput{Draft: sess.Snapshot()}
			if dryRun {
				return emitSubmit(cmd, out, jsonOutput, nil)
			}

			mode := order.ModeDraft
			if post {
				mode = order.ModePosted
			}
			res, err := sess.Submit(ctx, mode)
			if err != nil {
				out.Error = err.Error()
				return emitSubmit(cmd, out, jsonOutput, err)
			}
			out.Result = &res
			return emitSubmit(cmd, out, jsonOutput, nil)
		},
	}

	cmd.Flags().Int64Var(&customer, "customer", 0, "customer (contragent) id")
	cmd.Flags().Int64Var(&account, "account", 0, "paybox id")
	cmd.Flags().Int64Var(&organization, "organization", 0, "organization id")
	cmd.Flags().Int64Var(&warehouse, "warehouse", 0, "warehouse id")
	cmd.Flags().Int64Var(&priceType, "price-type", 0, "price type id")
	cmd.Flags().StringArrayVarP(&items, "item", "i", nil, "product as id or id:quantity, repeatable")
	cmd.Flags().StringVar(&itemsFile, "items", "", "CSV file with nomenclature,quantity columns")
	cmd.Flags().BoolVar(&post, "post", false, "create and post the document")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the draft without submitting")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func addItems(ctx context.Context, w importer.ItemWriter, itemArgs []string, path string) error {
	lines := make([]importer.Line, 0, len(itemArgs))
	for _, arg := range itemArgs {
		line, err := importer.ParseItemArg(arg)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open items file: %w", err)
		}
		defer f.Close()
		fromFile, err := importer.NewCSVImporter(f).Parse()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		lines = append(lines, fromFile...)
	}
	if _, err := importer.Apply(ctx, w, lines); err != nil {
		return err
	}
	return nil
}

func emitSubmit(cmd *cobra.Command, out submitOutput, jsonOutput bool, submitErr error) error {
	if jsonOutput {
		if err := renderJSON(cmd, out); err != nil {
			return err
		}
		return submitErr
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, tui.RenderDraft(out.Draft))
	switch {
	case submitErr != nil:
		var missing *domain.MissingFieldError
		if errors.As(submitErr, &missing) {
			fmt.Fprint(w, tui.RenderFailure("missing "+missing.Field))
		} else {
			fmt.Fprint(w, tui.RenderFailure(submitErr.Error()))
		}
	case out.Result != nil:
		fmt.Fprint(w, tui.RenderSuccess(out.Result.Message, out.Result.DocumentIDs))
	}
	return submitErr
}
