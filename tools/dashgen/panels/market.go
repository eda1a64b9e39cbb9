package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RefreshDuration returns a timeseries panel showing p50 and p95 market
// refresh cycle durations.
func RefreshDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Refresh Duration").
		Description("Per-search market refresh duration percentiles").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(autocote_market_refresh_duration_seconds_bucket{job="autocote"}[5m])) by (le))`,
			"p50",
			"A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(autocote_market_refresh_duration_seconds_bucket{job="autocote"}[5m])) by (le))`,
			"p95",
			"B",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ModelOutcomes returns a timeseries panel comparing trained and skipped
// valuation models per hour.
func ModelOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Model Outcomes / h").
		Description("Valuation models trained vs left untrained per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`autocote:models_trained:rate1h`, "trained", "A")).
		WithTarget(PromQuery(`autocote:models_skipped:rate1h`, "skipped", "B")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CohortSizeSeries returns a timeseries panel tracking cleaned cohort sizes
// over time.
func CohortSizeSeries() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cohort Size").
		Description("Cleaned cohort size per market refresh").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`autocote_market_cohort_size{job="autocote"}`, "cohort", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
