// Package main seeds a running autocote server with synthetic listings.
// It plays the role of the scraper robot and the analysis collaborator for
// local development: it creates a search, ingests a priced cohort, and
// submits analysis payloads so the scoring and valuation paths have data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	apiclient "github.com/tmarchal/autocote/internal/api/client"
	domain "github.com/tmarchal/autocote/pkg/types"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API server URL")
	count := flag.Int("count", 30, "number of listings to ingest")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*server, *count, *seed, log); err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}

func run(server string, count int, seed int64, log *slog.Logger) error {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic dev data
	c := apiclient.New(server)

	search, err := c.CreateSearch(ctx, &domain.Search{
		Name:   "Clio IV diesel (seeded)",
		Query:  "renault clio iv dci",
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("creating search: %w", err)
	}
	log.Info("created search", "id", search.ID)

	for i := 0; i < count; i++ {
		listing, err := c.IngestListing(ctx, randomListing(rng, search.ID, i))
		if err != nil {
			return fmt.Errorf("ingesting listing %d: %w", i, err)
		}

		payload, err := json.Marshal(randomAnalysis(rng))
		if err != nil {
			return fmt.Errorf("building analysis %d: %w", i, err)
		}

		rec, err := c.SubmitAnalysis(ctx, listing.ID, payload)
		if err != nil {
			return fmt.Errorf("submitting analysis %d: %w", i, err)
		}
		log.Info("seeded listing", "id", listing.ID, "price", listing.Price, "total", rec.Total)
	}

	refreshed, err := c.RefreshSearchMarket(ctx, search.ID)
	if err != nil {
		return fmt.Errorf("refreshing market: %w", err)
	}
	log.Info("market refreshed", "search", search.ID, "refreshed", refreshed)

	return nil
}

func randomListing(rng *rand.Rand, searchID string, i int) *domain.Listing {
	year := 2013 + rng.Intn(8)
	mileage := 40000 + rng.Intn(140000)
	// Price loosely tracks age and mileage so the valuation model has
	// structure to find.
	price := 14000 - (2021-year)*900 - mileage/40 + rng.Intn(1500)
	if price < 1500 {
		price = 1500
	}
	rating := 0.55 + rng.Float64()*0.45
	reviews := rng.Intn(40)

	l := &domain.Listing{
		URL:       fmt.Sprintf("https://annonces.example.org/vi/%06d", i),
		SearchIDs: []string{searchID},
		Title:     fmt.Sprintf("Renault Clio IV 1.5 dCi 90 %d", year),
		Description: "Vends Clio IV diesel entretien suivi factures a l'appui " +
			"courroie faite distribution ok pneus recents ct vierge",
		Price:             price,
		Year:              &year,
		Mileage:           &mileage,
		SellerRatingCount: reviews,
	}
	if reviews > 0 {
		l.SellerRating = &rating
	}
	return l
}

func randomAnalysis(rng *rand.Rand) map[string]any {
	payload := map[string]any{
		"summary":                   "Entretien suivi, usure coherente avec le kilometrage.",
		"findings":                  map[string]any{},
		"productQualityRating0to10": 5 + rng.Float64()*4,
	}
	if rng.Float64() < 0.3 {
		payload["findings"] = map[string]any{
			"mechanical": []map[string]any{
				{"name": "embrayage fatigue", "severity": 0.2 + rng.Float64()*0.3},
			},
		}
		payload["itemizedRepairCosts"] = []map[string]any{
			{"item": "embrayage", "cost": 400 + rng.Intn(600)},
		}
	}
	if rng.Float64() < 0.4 {
		payload["confidenceTagsPositive"] = []string{"historique_entretien_complet"}
	}
	return payload
}
