package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/tmarchal/autocote/internal/api/client"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Query and flag listings",
		Long: "Query scored listings and set manual flags: favorite a listing,\n" +
			"mark it sold, or override its trust status.",
	}

	listingsRoot.AddCommand(
		listingListCmd(),
		listingGetCmd(),
		listingIngestCmd(),
		listingAnalyzeCmd(),
		listingFlagCmd(),
		listingFavoriteCmd(),
		listingSoldCmd(),
	)

	return listingsRoot
}

func listingListCmd() *cobra.Command {
	var params apiclient.ListListingsParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Example: `  autocote listings list --search-id abc123 --min-total 80
  autocote listings list --status ACTIVE --order-by total --limit 20
  autocote listings list --favorites --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListListings(context.Background(), &params)
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
			if err := printListingsTable(resp.Listings); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d listings.\n", len(resp.Listings), resp.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.SearchID, "search-id", "", "filter by search UUID")
	cmd.Flags().StringVar(&params.Status, "status", "", "filter by lifecycle status (ACTIVE, SOLD, ARCHIVED, SCAM)")
	cmd.Flags().StringVar(&params.UserStatus, "user-status", "", "filter by manual flag (NORMAL, TRASH, SCAM_MANUAL)")
	cmd.Flags().Float64Var(&params.MinTotal, "min-total", 0, "minimum composite score")
	cmd.Flags().IntVar(&params.MaxPrice, "max-price", 0, "maximum posted price in EUR")
	cmd.Flags().BoolVar(&params.Favorites, "favorites", false, "only favorited listings")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "number of results")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "pagination offset")
	cmd.Flags().StringVar(&params.OrderBy, "order-by", "", "sort field (total, price, first_seen_at)")

	return cmd
}

func listingGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show listing details",
		Example: `  autocote listings get abc123
  autocote listings get abc123 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			l, err := c.GetListing(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(l)
			}
			return printListingDetail(l)
		},
	}
}

func listingFlagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flag <id> <status>",
		Short: "Set the manual trust flag on a listing",
		Long:  "Sets the manual flag: NORMAL, TRASH, or SCAM_MANUAL. TRASH and SCAM_MANUAL listings are excluded from valuation cohorts.",
		Example: `  autocote listings flag abc123 SCAM_MANUAL
  autocote listings flag abc123 NORMAL`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetUserStatus(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Listing flagged %s.\n", args[1])
			return nil
		},
	}
}

func listingFavoriteCmd() *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Favorite or unfavorite a listing",
		Example: `  autocote listings favorite abc123
  autocote listings favorite abc123 --unset`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetFavorite(context.Background(), args[0], !unset); err != nil {
				return err
			}
			if unset {
				fmt.Println("Listing unfavorited.")
			} else {
				fmt.Println("Listing favorited.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "unset", false, "remove the favorite flag")

	return cmd
}

func listingSoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sold <id>",
		Short:   "Mark a listing as sold",
		Example: `  autocote listings sold abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.MarkSold(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Listing marked sold.")
			return nil
		},
	}
}
