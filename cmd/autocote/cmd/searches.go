package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/tmarchal/autocote/pkg/types"
)

func searchesCmd() *cobra.Command {
	searchRoot := &cobra.Command{
		Use:   "searches",
		Short: "Manage saved searches",
		Long: "Manage saved searches that define a vehicle market scope: a query\n" +
			"plus optional year and price bounds. Each search carries its own\n" +
			"valuation model, retrained on every market refresh.",
	}

	searchRoot.AddCommand(
		searchListCmd(),
		searchGetCmd(),
		searchCreateCmd(),
		searchActivateCmd(),
		searchDeactivateCmd(),
		searchDeleteCmd(),
		searchRefreshCmd(),
	)

	return searchRoot
}

func searchListCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved searches",
		Example: `  autocote searches list
  autocote searches list --active
  autocote searches list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			searches, err := c.ListSearches(context.Background(), activeOnly)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(searches)
			}
			if len(searches) == 0 {
				fmt.Println("No searches found.")
				return nil
			}
			return printSearchTable(searches)
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active searches")

	return cmd
}

func searchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show search details",
		Example: `  autocote searches get abc123
  autocote searches get abc123 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			s, err := c.GetSearch(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printSearchDetail(s)
		},
	}
}

func searchCreateCmd() *cobra.Command {
	var (
		name     string
		query    string
		minYear  int
		maxYear  int
		minPrice int
		maxPrice int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a saved search",
		Example: `  autocote searches create --name "Clio IV diesel" --query "renault clio iv dci"
  autocote searches create --name "308 SW" --query "peugeot 308 sw" --min-year 2015 --max-price 15000`,
		RunE: func(_ *cobra.Command, _ []string) error {
			s := &domain.Search{
				Name:   name,
				Query:  query,
				Active: true,
			}
			if minYear > 0 {
				s.MinYear = &minYear
			}
			if maxYear > 0 {
				s.MaxYear = &maxYear
			}
			if minPrice > 0 {
				s.MinPrice = &minPrice
			}
			if maxPrice > 0 {
				s.MaxPrice = &maxPrice
			}

			c := newClient()
			created, err := c.CreateSearch(context.Background(), s)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}

			fmt.Printf("Created search %s.\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "search name (required)")
	cmd.Flags().StringVar(&query, "query", "", "marketplace query (required)")
	cmd.Flags().IntVar(&minYear, "min-year", 0, "minimum model year")
	cmd.Flags().IntVar(&maxYear, "max-year", 0, "maximum model year")
	cmd.Flags().IntVar(&minPrice, "min-price", 0, "minimum price in EUR")
	cmd.Flags().IntVar(&maxPrice, "max-price", 0, "maximum price in EUR")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func searchActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "activate <id>",
		Short:   "Activate a search",
		Example: `  autocote searches activate abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetSearchActive(context.Background(), args[0], true); err != nil {
				return err
			}
			fmt.Println("Search activated.")
			return nil
		},
	}
}

func searchDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "deactivate <id>",
		Short:   "Deactivate a search",
		Example: `  autocote searches deactivate abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.SetSearchActive(context.Background(), args[0], false); err != nil {
				return err
			}
			fmt.Println("Search deactivated.")
			return nil
		},
	}
}

func searchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a search",
		Example: `  autocote searches delete abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.DeleteSearch(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Search deleted.")
			return nil
		},
	}
}

func searchRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh <id>",
		Short:   "Retrain the valuation model for one search",
		Long:    "Retrains the search's valuation model from its current cohort and refreshes deal scores.",
		Example: `  autocote searches refresh abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			refreshed, err := c.RefreshSearchMarket(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Refreshed deal scores for %d listings.\n", refreshed)
			return nil
		},
	}
}
