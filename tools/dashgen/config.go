package main

import "errors"

// KnownMetrics is the set of metric names exported by autocote plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"autocote_http_request_duration_seconds": true,
	"autocote_http_requests_total":           true,

	// Health metrics.
	"autocote_healthz_up": true,
	"autocote_readyz_up":  true,

	// Scoring metrics.
	"autocote_scoring_distribution":   true,
	"autocote_scoring_listings_total": true,
	"autocote_scoring_errors_total":   true,

	// Market model metrics.
	"autocote_market_refresh_duration_seconds": true,
	"autocote_market_models_trained_total":     true,
	"autocote_market_models_skipped_total":     true,
	"autocote_market_cohort_size":              true,

	// Lifecycle metrics.
	"autocote_listings_archived_total": true,
	"autocote_listings_sold_total":     true,

	// Notification metrics.
	"autocote_notifications_sent_total":    true,
	"autocote_notification_failures_total": true,

	// Recording rules.
	"autocote:http_requests:rate5m":      true,
	"autocote:http_errors:rate5m":        true,
	"autocote:scoring_listings:rate5m":   true,
	"autocote:scoring_errors:rate5m":     true,
	"autocote:models_trained:rate1h":     true,
	"autocote:models_skipped:rate1h":     true,
	"autocote:notifications_sent:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
