package analytics

import (
	"context"
	"log/slog"
	"sync"
)

// MetricQuery describes one analytics request.
type MetricQuery struct {
	Metric         string
	Timeframe      string
	IncludeRelated bool
}

// AggregatedResult bundles the primary metric's data with whatever related
// data could be fetched.
type AggregatedResult struct {
	Metric    string
	Timeframe string
	Primary   MetricData
	Related   map[string]MetricData
}

// Aggregator fetches a primary metric plus, optionally, its related metrics.
type Aggregator struct {
	fetcher   Fetcher
	relations *RelationTable
	logger    *slog.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(fetcher Fetcher, relations *RelationTable, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:   fetcher,
		relations: relations,
		logger:    logger.With("component", "metric_aggregator"),
	}
}

// Aggregate fetches the primary metric and, when requested, its related
// metrics. The primary fetch is mandatory: any failure fails the whole
// aggregation. Related fetches are best-effort and run concurrently; a failed
// related fetch is dropped from the result.
func (a *Aggregator) Aggregate(ctx context.Context, query MetricQuery, credential string) (*AggregatedResult, error) {
	primary, err := a.fetcher.FetchMetric(ctx, query.Metric, credential)
	if err != nil {
		return nil, err
	}

	result := &AggregatedResult{
		Metric:    query.Metric,
		Timeframe: query.Timeframe,
		Primary:   primary,
		Related:   make(map[string]MetricData),
	}

	if !query.IncludeRelated {
		return result, nil
	}

	related := a.relations.RelatedMetrics(query.Metric)
	if len(related) == 0 {
		return result, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, name := range related {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			data, err := a.fetcher.FetchMetric(ctx, name, credential)
			if err != nil {
				a.logger.WarnContext(ctx, "Dropping failed related metric fetch", "metric", name, "error", err)
				return
			}
			mu.Lock()
			result.Related[name] = data
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return result, nil
}
