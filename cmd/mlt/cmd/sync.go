package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "sync <user-id>",
		Short: "Trigger a sync for a user",
		Example: `  # Sync catalog and orders
  mlt sync user-1

  # Catalog only
  mlt sync user-1 --target catalog`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.TriggerSync(context.Background(), args[0], target)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("Sync complete (%s): %d listings, %d sales\n",
				resp.Target, resp.ListingsUpserted, resp.SalesUpserted)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "all", "what to sync: catalog, orders, or all")

	return cmd
}

func runsCmd() *cobra.Command {
	var (
		job   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "runs <user-id>",
		Short: "Show a user's recent sync runs",
		Example: `  # Last 20 runs
  mlt runs user-1

  # Order sync history only
  mlt runs user-1 --job order_sync`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			runs, err := c.ListSyncRuns(context.Background(), args[0], job, limit)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No sync runs found.")
				return nil
			}

			return printSyncRunsTable(runs)
		},
	}
	cmd.Flags().StringVar(&job, "job", "", "filter by job (catalog_sync, order_sync)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of run records")

	return cmd
}
