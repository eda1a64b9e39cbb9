package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func refreshMarketCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh-market",
		Short:   "Retrain valuation models for all active searches",
		Long:    "Runs a full market refresh: retrains every active search's valuation model and refreshes deal scores.",
		Example: `  autocote refresh-market`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerMarketRefresh(context.Background()); err != nil {
				return err
			}
			fmt.Println("Market refresh completed.")
			return nil
		},
	}
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "archive",
		Short:   "Archive listings not observed recently",
		Example: `  autocote archive`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerArchive(context.Background()); err != nil {
				return err
			}
			fmt.Println("Archive completed.")
			return nil
		},
	}
}
