package scoring

import "math"

// Weights defines the relative importance of the three score pillars.
// They must sum to 1.0; config validation enforces this at startup.
type Weights struct {
	Deal float64 `yaml:"deal"`
	Conf float64 `yaml:"conf"`
	Prod float64 `yaml:"prod"`
}

// DefaultWeights returns the default pillar weights.
func DefaultWeights() Weights {
	return Weights{Deal: 0.5, Conf: 0.3, Prod: 0.2}
}

// SeverityConfigs holds one aggregation config per finding category.
type SeverityConfigs struct {
	Mechanical   AggregationConfig `yaml:"mechanical"`
	Modification AggregationConfig `yaml:"modification"`
	Scam         AggregationConfig `yaml:"scam"`
}

// Findings groups the severity-tagged findings by category.
type Findings struct {
	Mechanical   []SeverityItem `json:"mechanical"`
	Modification []SeverityItem `json:"modification"`
	Scam         []SeverityItem `json:"scam"`
}

// BaseScores is the per-pillar breakdown before trust multipliers.
type BaseScores struct {
	Deal float64 `json:"deal"`
	Conf float64 `json:"conf"`
	Prod float64 `json:"prod"`
}

// SanityChecks carries the three K factors applied to the base score.
type SanityChecks struct {
	KMeca  float64 `json:"k_meca"`
	KModif float64 `json:"k_modif"`
	KScam  float64 `json:"k_scam"`
}

// Financial records the price figures behind the deal pillar. Virtual price
// is the posted price plus itemized repair costs; market estimation is only
// present once a trained valuation model has produced a fair price.
type Financial struct {
	PostedPrice      int  `json:"posted_price"`
	RepairCost       int  `json:"repair_cost"`
	VirtualPrice     int  `json:"virtual_price"`
	MarketEstimation *int `json:"market_estimation,omitempty"`
}

// ScoreRecord is the complete scoring output for one listing. It carries no
// listing identity; the caller associates it with a listing when persisting.
type ScoreRecord struct {
	Total        float64      `json:"total"`
	Base         BaseScores   `json:"base"`
	SanityChecks SanityChecks `json:"sanity_checks"`
	Financial    Financial    `json:"financial"`
}

// CompositeInput is everything the composite formula needs for one listing.
// DealScore is set by the caller when a fair-price estimate exists; when nil
// the deal pillar falls back to the configured neutral base.
type CompositeInput struct {
	PostedPrice        int
	RepairCost         int
	DealScore          *float64
	MarketEstimation   *float64
	Confidence         ConfidenceInput
	ProductRating0to10 float64
	Findings           Findings
}

// CompositeConfig bundles the configuration consumed by Score.
type CompositeConfig struct {
	Weights     Weights          `yaml:"weights"`
	NeutralDeal float64          `yaml:"neutral_deal"`
	Confidence  ConfidenceConfig `yaml:"confidence"`
	Severity    SeverityConfigs  `yaml:"severity"`
}

// Score combines the three pillars and the per-category trust multipliers
// into a final score record. Every pillar and K factor is clamped into its
// documented bound before being combined, so Total is always in [0,100].
func Score(in CompositeInput, cfg CompositeConfig) ScoreRecord {
	sDeal := cfg.NeutralDeal
	if in.DealScore != nil {
		sDeal = clamp(*in.DealScore, 0, 100)
	}

	sConf := ComputeConfidence(in.Confidence, cfg.Confidence)
	sProd := clamp(in.ProductRating0to10*10, 0, 100)

	kMeca := AggregateK(in.Findings.Mechanical, cfg.Severity.Mechanical)
	kModif := AggregateK(in.Findings.Modification, cfg.Severity.Modification)
	kScam := AggregateK(in.Findings.Scam, cfg.Severity.Scam)

	rec := ScoreRecord{
		Base: BaseScores{Deal: sDeal, Conf: sConf, Prod: sProd},
		SanityChecks: SanityChecks{
			KMeca:  round2(kMeca),
			KModif: round2(kModif),
			KScam:  round2(kScam),
		},
		Financial: Financial{
			PostedPrice:  in.PostedPrice,
			RepairCost:   in.RepairCost,
			VirtualPrice: in.PostedPrice + in.RepairCost,
		},
	}

	if in.MarketEstimation != nil {
		est := int(math.Round(*in.MarketEstimation))
		rec.Financial.MarketEstimation = &est
	}

	// The total multiplies the unrounded K factors; the record stores them
	// rounded for display. Refresh paths recombine from the stored values.
	rec.Total = CombineTotal(rec.Base, SanityChecks{KMeca: kMeca, KModif: kModif, KScam: kScam}, cfg.Weights)
	return rec
}

// CombineTotal recomputes the final score from an existing pillar breakdown
// and K factors. The deal-score refresh path uses it to re-derive the total
// without touching the confidence and product pillars.
func CombineTotal(base BaseScores, sanity SanityChecks, w Weights) float64 {
	weighted := base.Deal*w.Deal + base.Conf*w.Conf + base.Prod*w.Prod
	return round1(weighted * sanity.KMeca * sanity.KModif * sanity.KScam)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
