package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/tmarchal/autocote/pkg/types"
)

func listingIngestCmd() *cobra.Command {
	var (
		url          string
		title        string
		price        int
		year         int
		mileage      int
		searchID     string
		description  string
		sellerRating float64
		sellerCount  int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Manually ingest a listing",
		Long: "Upserts a single observed listing, keyed by URL. Normally the\n" +
			"scraper robot pushes listings; this is the manual pathway.",
		Example: `  autocote listings ingest --url https://example.org/ad/123 --title "Clio IV 1.5 dCi" --price 8900 --year 2016 --mileage 112000`,
		RunE: func(_ *cobra.Command, _ []string) error {
			l := &domain.Listing{
				URL:         url,
				Title:       title,
				Price:       price,
				Description: description,
			}
			if year > 0 {
				l.Year = &year
			}
			if mileage > 0 {
				l.Mileage = &mileage
			}
			if searchID != "" {
				l.SearchIDs = []string{searchID}
			}
			if sellerRating > 0 {
				l.SellerRating = &sellerRating
				l.SellerRatingCount = sellerCount
			}

			c := newClient()
			stored, err := c.IngestListing(context.Background(), l)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(stored)
			}

			fmt.Printf("Ingested listing %s.\n", stored.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "listing URL (required)")
	cmd.Flags().StringVar(&title, "title", "", "listing title (required)")
	cmd.Flags().IntVar(&price, "price", 0, "posted price in EUR (required)")
	cmd.Flags().IntVar(&year, "year", 0, "model year")
	cmd.Flags().IntVar(&mileage, "mileage", 0, "mileage in km")
	cmd.Flags().StringVar(&searchID, "search-id", "", "saved search this listing belongs to")
	cmd.Flags().StringVar(&description, "description", "", "listing description text")
	cmd.Flags().Float64Var(&sellerRating, "seller-rating", 0, "seller rating in [0,1]")
	cmd.Flags().IntVar(&sellerCount, "seller-reviews", 0, "seller review count")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func listingAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <id> <payload.json>",
		Short: "Submit an analysis payload for a listing",
		Long: "Stores a textual-analysis payload for a listing and computes its\n" +
			"score record. Use - to read the payload from stdin.",
		Example: `  autocote listings analyze abc123 analysis.json
  cat analysis.json | autocote listings analyze abc123 -`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := readPayload(args[1])
			if err != nil {
				return err
			}

			c := newClient()
			rec, err := c.SubmitAnalysis(context.Background(), args[0], payload)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(rec)
			}
			return printScoreRecord(rec)
		},
	}
}
