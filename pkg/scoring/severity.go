// Package scoring implements the pure scoring functions for vehicle listings:
// severity aggregation into trust multipliers (K factors), the confidence
// pillar, and the composite score formula. Everything here is deterministic,
// side-effect free, and driven entirely by the configuration values passed in.
package scoring

import "math"

// SeverityItem is a single flagged finding from the analysis collaborator.
// Severity is expected in [0,1]; out-of-range values are clamped on read.
type SeverityItem struct {
	Name     string  `json:"name"`
	Severity float64 `json:"severity"`
}

// AggregationConfig tunes how a category of findings collapses into one
// K factor. Alpha balances worst-single-finding against the saturating sum:
// high alpha means one severe finding dominates, low alpha lets minor
// findings compound. SumCap stops additional minor findings from mattering
// past a point. HardThreshold/KMinHard form a second-tier floor: when the
// worst finding crosses HardThreshold the multiplier may drop to KMinHard
// instead of stopping at KMin.
type AggregationConfig struct {
	Alpha         float64  `yaml:"alpha"`
	SumCap        float64  `yaml:"sum_cap"`
	KMin          float64  `yaml:"k_min"`
	HardThreshold *float64 `yaml:"hard_threshold,omitempty"`
	KMinHard      *float64 `yaml:"k_min_hard,omitempty"`
}

// AggregateK collapses a list of severity-tagged findings into a trust
// multiplier in [floor, 1]. An empty list means no negative evidence and
// returns 1.0.
func AggregateK(items []SeverityItem, cfg AggregationConfig) float64 {
	if len(items) == 0 {
		return 1.0
	}

	var sMax, sSum float64
	for _, it := range items {
		s := clamp(it.Severity, 0, 1)
		sMax = math.Max(sMax, s)
		sSum += s
	}
	sSum = math.Min(sSum, cfg.SumCap)

	penalty := cfg.Alpha*sMax + (1-cfg.Alpha)*sSum
	k := 1.0 - penalty

	floor := cfg.KMin
	if cfg.HardThreshold != nil && sMax >= *cfg.HardThreshold && cfg.KMinHard != nil {
		floor = *cfg.KMinHard
	}

	return clamp(k, floor, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
