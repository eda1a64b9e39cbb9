package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, ScoringDistribution)
	assert.NotNil(t, ScoringListingsTotal)
	assert.NotNil(t, ScoringErrorsTotal)
	assert.NotNil(t, MarketRefreshDuration)
	assert.NotNil(t, MarketModelsTrainedTotal)
	assert.NotNil(t, MarketModelsSkippedTotal)
	assert.NotNil(t, MarketCohortSize)
	assert.NotNil(t, ListingsArchivedTotal)
	assert.NotNil(t, ListingsSoldTotal)
	assert.NotNil(t, NotificationsSentTotal)
	assert.NotNil(t, NotificationFailuresTotal)
}
