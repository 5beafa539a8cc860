package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/facuhernandez/melitrack/internal/api/client"
)

func listingsCmd() *cobra.Command {
	var (
		status     string
		categoryID string
		minPrice   float64
		maxPrice   float64
		limit      int
		offset     int
		orderBy    string
	)

	cmd := &cobra.Command{
		Use:   "listings <user-id>",
		Short: "List a user's synced publications",
		Example: `  # List all synced publications
  mlt listings user-1

  # Only active ones, cheapest first
  mlt listings user-1 --status active --order-by price

  # Filter by price band with pagination
  mlt listings user-1 --min-price 1000 --max-price 5000 --limit 20 --offset 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.ListListings(context.Background(), args[0], &apiclient.ListListingsParams{
				Status:     status,
				CategoryID: categoryID,
				MinPrice:   minPrice,
				MaxPrice:   maxPrice,
				Limit:      limit,
				Offset:     offset,
				OrderBy:    orderBy,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}

			fmt.Printf("Showing %d of %d listings\n\n", len(resp.Listings), resp.Total)
			return printListingsTable(resp.Listings)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (active, paused, closed)")
	cmd.Flags().StringVar(&categoryID, "category", "", "category filter")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price filter")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	cmd.Flags().
		StringVar(&orderBy, "order-by", "", "sort order (price, sold_quantity, last_updated)")

	return cmd
}
