package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ArchivedListings returns a stat panel showing listings archived in the
// past 24 hours.
func ArchivedListings() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Archived (24h)").
		Description("Listings archived as stale in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`increase(autocote_listings_archived_total{job="autocote"}[24h])`, "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// SoldListings returns a timeseries panel showing listings marked sold per day.
func SoldListings() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Sold / day").
		Description("Listings marked sold per day").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`increase(autocote_listings_sold_total{job="autocote"}[1d])`,
			"sold/day", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
