package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func mecaConfig() AggregationConfig {
	return AggregationConfig{Alpha: 0.40, SumCap: 1.00, KMin: 0.25}
}

func modifConfig() AggregationConfig {
	return AggregationConfig{
		Alpha:         0.75,
		SumCap:        0.60,
		KMin:          0.70,
		HardThreshold: f64(0.80),
		KMinHard:      f64(0.30),
	}
}

func TestAggregateK_EmptyIsFullTrust(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, AggregateK(nil, mecaConfig()))
	assert.Equal(t, 1.0, AggregateK([]SeverityItem{}, modifConfig()))
}

func TestAggregateK_SingleFinding(t *testing.T) {
	t.Parallel()

	// penalty = 0.4*0.6 + 0.6*0.6 = 0.60 -> K = 0.40
	k := AggregateK([]SeverityItem{{Name: "engine noise", Severity: 0.6}}, mecaConfig())
	assert.InDelta(t, 0.40, k, 1e-9)
}

func TestAggregateK_HardFloorEngages(t *testing.T) {
	t.Parallel()

	// penalty = 0.75*0.9 + 0.25*min(0.9, 0.6) = 0.825 -> raw K = 0.175.
	// sMax 0.9 >= hard threshold 0.80, so the hard floor 0.30 applies.
	k := AggregateK([]SeverityItem{{Name: "stage 2", Severity: 0.9}}, modifConfig())
	assert.InDelta(t, 0.30, k, 1e-9)
}

func TestAggregateK_SoftFloorWithoutHardTrigger(t *testing.T) {
	t.Parallel()

	// sMax 0.7 < hard threshold, so the soft floor 0.70 holds even though
	// the raw K would be lower.
	k := AggregateK([]SeverityItem{{Name: "exhaust", Severity: 0.7}}, modifConfig())
	assert.InDelta(t, 0.70, k, 1e-9)
}

func TestAggregateK_SumCapSaturates(t *testing.T) {
	t.Parallel()

	cfg := mecaConfig()
	many := []SeverityItem{
		{Severity: 0.3}, {Severity: 0.3}, {Severity: 0.3},
		{Severity: 0.3}, {Severity: 0.3}, {Severity: 0.3},
	}
	// sum = 1.8 saturates at sum_cap 1.0; penalty = 0.4*0.3 + 0.6*1.0 = 0.72.
	assert.InDelta(t, 0.28, AggregateK(many, cfg), 1e-9)
}

func TestAggregateK_ClampsSeverities(t *testing.T) {
	t.Parallel()

	inBounds := AggregateK([]SeverityItem{{Severity: 1.0}}, mecaConfig())
	outOfBounds := AggregateK([]SeverityItem{{Severity: 7.5}}, mecaConfig())
	assert.Equal(t, inBounds, outOfBounds)

	negative := AggregateK([]SeverityItem{{Severity: -2}}, mecaConfig())
	assert.Equal(t, 1.0, negative, "negative severity clamps to zero evidence")
}

func TestAggregateK_AlwaysWithinBounds(t *testing.T) {
	t.Parallel()

	cfgs := []AggregationConfig{
		mecaConfig(),
		modifConfig(),
		{Alpha: 0.90, SumCap: 0.40, KMin: 0.05},
	}
	lists := [][]SeverityItem{
		nil,
		{{Severity: 0.01}},
		{{Severity: 0.5}, {Severity: 0.5}},
		{{Severity: 1.0}, {Severity: 1.0}, {Severity: 1.0}},
	}

	for _, cfg := range cfgs {
		floor := cfg.KMin
		if cfg.KMinHard != nil && *cfg.KMinHard < floor {
			floor = *cfg.KMinHard
		}
		for _, items := range lists {
			k := AggregateK(items, cfg)
			assert.GreaterOrEqual(t, k, floor)
			assert.LessOrEqual(t, k, 1.0)
		}
	}
}

func TestAggregateK_MonotoneInSeverity(t *testing.T) {
	t.Parallel()

	cfg := mecaConfig()
	items := []SeverityItem{{Severity: 0.2}, {Severity: 0.1}}

	prev := AggregateK(items, cfg)
	for s := 0.1; s <= 1.0; s += 0.05 {
		items[1].Severity = s
		k := AggregateK(items, cfg)
		assert.LessOrEqual(t, k, prev,
			"raising one severity must not raise K (severity=%.2f)", s)
		prev = k
	}
}
