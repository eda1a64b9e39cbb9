package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmarchal/autocote/internal/analysis"
	"github.com/tmarchal/autocote/internal/config"
	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
)

// valuateCmd scores a single listing offline from an analysis payload file,
// without a running server or database. Useful for tuning scoring config.
func valuateCmd() *cobra.Command {
	var (
		price          int
		sellerRating   float64
		sellerReviews  int
		description    string
		marketEstimate int
	)

	cmd := &cobra.Command{
		Use:   "valuate <analysis.json>",
		Short: "Score a listing offline from an analysis payload",
		Long: "Computes the composite score for one listing from an analysis\n" +
			"payload file (use - for stdin), without contacting the server.\n" +
			"The deal pillar stays neutral unless --market-estimate is given.",
		Example: `  autocote valuate analysis.json --price 8900
  cat analysis.json | autocote valuate - --price 8900 --seller-rating 0.95 --seller-reviews 12
  autocote valuate analysis.json --price 8900 --market-estimate 11000`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := readPayload(args[0])
			if err != nil {
				return err
			}

			parsed, err := analysis.Parse(payload)
			if err != nil {
				return fmt.Errorf("parsing analysis payload: %w", err)
			}

			cfg, err := loadConfigOrDefault()
			if err != nil {
				return err
			}

			in := scoring.CompositeInput{
				PostedPrice: price,
				RepairCost:  parsed.RepairCost(),
				Confidence: scoring.ConfidenceInput{
					TagsPositive:         parsed.TagsPositive,
					TagsNegative:         parsed.TagsNegative,
					SellerRatingCount:    sellerReviews,
					DescriptionWordCount: len(strings.Fields(description)),
				},
				ProductRating0to10: parsed.ProductRating,
				Findings:           parsed.Findings,
			}
			if sellerRating > 0 {
				in.Confidence.SellerRating = &sellerRating
			}
			if marketEstimate > 0 {
				est := float64(marketEstimate)
				virtual := float64(price + parsed.RepairCost())
				deal := market.DealScoreFromRatio(virtual/est, cfg.Market.Ratios)
				in.DealScore = &deal
				in.MarketEstimation = &est
			}

			rec := scoring.Score(in, cfg.Scoring.Composite())

			if jsonOutput() {
				return outputJSON(rec)
			}
			return printScoreRecord(&rec)
		},
	}

	cmd.Flags().IntVar(&price, "price", 0, "posted price in EUR (required)")
	cmd.Flags().Float64Var(&sellerRating, "seller-rating", 0, "seller rating in [0,1]")
	cmd.Flags().IntVar(&sellerReviews, "seller-reviews", 0, "seller review count")
	cmd.Flags().StringVar(&description, "description", "", "listing description text")
	cmd.Flags().IntVar(&marketEstimate, "market-estimate", 0, "fair-price estimate in EUR")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI argument
	if err != nil {
		return nil, fmt.Errorf("reading payload file: %w", err)
	}
	return data, nil
}

// loadConfigOrDefault falls back to built-in defaults when the config file
// is absent, so valuate works outside a deployment.
func loadConfigOrDefault() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("loading config: %w", err)
}
