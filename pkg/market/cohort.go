// Package market implements the fair-price valuation pipeline: training-cohort
// curation, the regression model with dynamic feature selection, and the
// mapping from price ratios to deal scores. The package is pure computation;
// fetching rows and persisting results belong to the caller.
package market

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TrainingRow is one listing's contribution to a search scope's training
// cohort. Nil pointers mean the listing never carried that field.
type TrainingRow struct {
	Price      *float64
	Year       *float64
	Mileage    *float64
	Horsepower *float64
	ScamK      *float64
	Status     string
	UserStatus string
	HasScores  bool
}

// VetoConfig defines the hard exclusion rules that keep untrustworthy
// listings out of the training cohort.
type VetoConfig struct {
	RequireAIScores   bool     `yaml:"require_ai_scores"`
	MinScamKForMarket float64  `yaml:"min_scam_k_for_market"`
	PriceFloorRatio   float64  `yaml:"price_floor_ratio"`
	PriceFloorStat    string   `yaml:"price_floor_stat"` // "median" or "mean"
	LegacyMinPrice    *float64 `yaml:"legacy_min_price,omitempty"`
	ExcludeStatus     []string `yaml:"exclude_status"`
	ExcludeUserStatus []string `yaml:"exclude_user_status"`
}

// OutlierConfig bounds price and mileage to absolute ranges, removing
// data-entry errors before training.
type OutlierConfig struct {
	MinPrice   float64 `yaml:"min_price"`
	MaxPrice   float64 `yaml:"max_price"`
	MinMileage float64 `yaml:"min_mileage"`
	MaxMileage float64 `yaml:"max_mileage"`
}

// CleanCohort filters raw rows down to a trustworthy, outlier-free training
// cohort. Filters apply in a fixed order and each one may empty the cohort,
// which is a valid terminal outcome rather than an error. Rows are never
// mutated, only excluded.
func CleanCohort(rows []TrainingRow, veto VetoConfig, outliers OutlierConfig) []TrainingRow {
	kept := make([]TrainingRow, 0, len(rows))
	for _, r := range rows {
		if r.Price == nil || r.Year == nil || r.Mileage == nil {
			continue
		}
		if veto.RequireAIScores && (!r.HasScores || r.ScamK == nil) {
			continue
		}
		// An unknown scam-trust factor never passes the threshold, even
		// when AI scores are not otherwise required.
		if r.ScamK == nil || *r.ScamK < veto.MinScamKForMarket {
			continue
		}
		if slices.Contains(veto.ExcludeStatus, r.Status) ||
			slices.Contains(veto.ExcludeUserStatus, r.UserStatus) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return kept
	}

	kept = applyPriceFloor(kept, veto)
	if len(kept) == 0 {
		return kept
	}

	out := kept[:0]
	for _, r := range kept {
		if *r.Price < outliers.MinPrice || *r.Price > outliers.MaxPrice {
			continue
		}
		if *r.Mileage < outliers.MinMileage || *r.Mileage > outliers.MaxMileage {
			continue
		}
		out = append(out, r)
	}
	return out
}

// applyPriceFloor drops rows priced below a ratio of the cohort's reference
// price statistic. Symbolic prices (1 EUR "make me an offer" listings) would
// otherwise anchor the model far too low. When the statistic is non-positive
// the legacy absolute floor applies, if configured.
func applyPriceFloor(rows []TrainingRow, veto VetoConfig) []TrainingRow {
	prices := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = *r.Price
	}

	var ref float64
	if veto.PriceFloorStat == "mean" {
		ref = stat.Mean(prices, nil)
	} else {
		sort.Float64s(prices)
		ref = stat.Quantile(0.5, stat.Empirical, prices, nil)
	}

	var floor float64
	switch {
	case ref > 0:
		floor = veto.PriceFloorRatio * ref
	case veto.LegacyMinPrice != nil:
		floor = *veto.LegacyMinPrice
	default:
		return rows
	}

	out := make([]TrainingRow, 0, len(rows))
	for _, r := range rows {
		if *r.Price >= floor {
			out = append(out, r)
		}
	}
	return out
}
