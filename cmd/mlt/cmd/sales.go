package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/facuhernandez/melitrack/internal/api/client"
)

func salesCmd() *cobra.Command {
	var (
		from   string
		to     string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "sales <user-id>",
		Short: "List a user's synced sales",
		Example: `  # List recent sales
  mlt sales user-1

  # Sales within a date range
  mlt sales user-1 --from 2025-09-01T00:00:00Z --to 2025-10-01T00:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			params := &apiclient.ListSalesParams{Limit: limit, Offset: offset}

			if from != "" {
				t, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("parsing --from: %w", err)
				}
				params.From = t
			}
			if to != "" {
				t, err := time.Parse(time.RFC3339, to)
				if err != nil {
					return fmt.Errorf("parsing --to: %w", err)
				}
				params.To = t
			}

			c := newClient()
			resp, err := c.ListSales(context.Background(), args[0], params)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Sales) == 0 {
				fmt.Println("No sales found.")
				return nil
			}

			fmt.Printf("Showing %d of %d sales\n\n", len(resp.Sales), resp.Total)
			return printSalesTable(resp.Sales)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "only sales on or after this instant (RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "only sales before this instant (RFC 3339)")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")

	return cmd
}
