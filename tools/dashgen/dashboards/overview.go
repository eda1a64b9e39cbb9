// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/tmarchal/autocote/tools/dashgen/panels"
)

// BuildOverview constructs the autocote Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("autocote Overview").
		Uid("autocote-overview").
		Tags([]string{"autocote"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.CohortSizeStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Scoring.
	b.WithRow(dashboard.NewRowBuilder("Scoring").
		WithPanel(panels.ScoringRate()).
		WithPanel(panels.ScoringErrors()).
		WithPanel(panels.ScoreDistribution()))

	// Row 4: Market.
	b.WithRow(dashboard.NewRowBuilder("Market").
		WithPanel(panels.RefreshDuration()).
		WithPanel(panels.ModelOutcomes()).
		WithPanel(panels.CohortSizeSeries()))

	// Row 5: Lifecycle.
	b.WithRow(dashboard.NewRowBuilder("Lifecycle").
		WithPanel(panels.ArchivedListings()).
		WithPanel(panels.SoldListings()))

	// Row 6: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
