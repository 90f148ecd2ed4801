package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aruna-wellness/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher records which metrics were requested and fails the configured ones.
type mockFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (m *mockFetcher) FetchMetric(ctx context.Context, metric, credential string) (MetricData, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, metric)
	m.mu.Unlock()
	if err, ok := m.fail[metric]; ok {
		return nil, err
	}
	return MetricData(fmt.Sprintf(`{"metric": %q}`, metric)), nil
}

func (m *mockFetcher) fetchedMetrics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

func testRelations() *RelationTable {
	return NewRelationTable(map[string][]string{
		"sleep": {"heart-rate", "stress", "screen-time"},
		"steps": {"heart-rate", "calories"},
	})
}

func TestAggregateIncludesRelatedMetrics(t *testing.T) {
	fetcher := &mockFetcher{}
	agg := NewAggregator(fetcher, testRelations(), logger.NewTestLogger())

	result, err := agg.Aggregate(context.Background(), MetricQuery{
		Metric:         "sleep",
		Timeframe:      "week",
		IncludeRelated: true,
	}, "token-123")

	require.NoError(t, err)
	assert.Equal(t, "sleep", result.Metric)
	assert.JSONEq(t, `{"metric": "sleep"}`, string(result.Primary))
	assert.Len(t, result.Related, 3)
	assert.Contains(t, result.Related, "heart-rate")
	assert.Contains(t, result.Related, "stress")
	assert.Contains(t, result.Related, "screen-time")
}

func TestAggregateDropsFailedRelatedFetch(t *testing.T) {
	fetcher := &mockFetcher{fail: map[string]error{
		"stress": fmt.Errorf("%w: status 502 for metric stress", ErrUpstream),
	}}
	agg := NewAggregator(fetcher, testRelations(), logger.NewTestLogger())

	result, err := agg.Aggregate(context.Background(), MetricQuery{
		Metric:         "sleep",
		Timeframe:      "week",
		IncludeRelated: true,
	}, "token-123")

	// One failed related metric must not fail the aggregation.
	require.NoError(t, err)
	assert.Len(t, result.Related, 2)
	assert.NotContains(t, result.Related, "stress")
}

func TestAggregatePrimaryFailureFailsWhole(t *testing.T) {
	fetcher := &mockFetcher{fail: map[string]error{
		"sleep": fmt.Errorf("%w: status 500 for metric sleep", ErrUpstream),
	}}
	agg := NewAggregator(fetcher, testRelations(), logger.NewTestLogger())

	_, err := agg.Aggregate(context.Background(), MetricQuery{
		Metric:         "sleep",
		Timeframe:      "week",
		IncludeRelated: true,
	}, "token-123")

	require.ErrorIs(t, err, ErrUpstream)
	// No related fetches happen once the primary has failed.
	assert.Equal(t, []string{"sleep"}, fetcher.fetchedMetrics())
}

func TestAggregateWithoutRelatedIssuesSingleFetch(t *testing.T) {
	fetcher := &mockFetcher{}
	agg := NewAggregator(fetcher, testRelations(), logger.NewTestLogger())

	result, err := agg.Aggregate(context.Background(), MetricQuery{
		Metric:         "sleep",
		Timeframe:      "today",
		IncludeRelated: false,
	}, "token-123")

	require.NoError(t, err)
	assert.Empty(t, result.Related)
	assert.Equal(t, []string{"sleep"}, fetcher.fetchedMetrics())
}

func TestAggregateUnknownMetricHasNoRelated(t *testing.T) {
	fetcher := &mockFetcher{}
	agg := NewAggregator(fetcher, testRelations(), logger.NewTestLogger())

	result, err := agg.Aggregate(context.Background(), MetricQuery{
		Metric:         "water-intake",
		Timeframe:      "today",
		IncludeRelated: true,
	}, "token-123")

	require.NoError(t, err)
	assert.Empty(t, result.Related)
	assert.Equal(t, []string{"water-intake"}, fetcher.fetchedMetrics())
}

func TestRelatedMetricsIsPureAndOrdered(t *testing.T) {
	table := testRelations()

	first := table.RelatedMetrics("sleep")
	second := table.RelatedMetrics("sleep")
	assert.Equal(t, []string{"heart-rate", "stress", "screen-time"}, first)
	assert.Equal(t, first, second)

	// Mutating the returned slice must not affect the table.
	first[0] = "mutated"
	assert.Equal(t, []string{"heart-rate", "stress", "screen-time"}, table.RelatedMetrics("sleep"))

	assert.Empty(t, table.RelatedMetrics("unknown-metric"))
}
