package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/aruna-wellness/backend/internal/analytics"
	"github.com/aruna-wellness/backend/internal/repository"
	"github.com/aruna-wellness/backend/internal/schedule"
)

// ContributionKind identifies which handler produced a contribution. The
// composer needs it to apply the text priority rules.
type ContributionKind int

const (
	KindProducts ContributionKind = iota
	KindPractitioners
	KindSchedule
	KindAnalytics
)

// AnalyticsRef points the UI at a chart to render for a metric.
type AnalyticsRef struct {
	Type      string `json:"type"`
	Timeframe string `json:"timeframe"`
}

// Contribution is one handler's addition to the final reply.
type Contribution struct {
	Kind          ContributionKind
	Text          string
	Products      []repository.Product
	Practitioners []repository.Practitioner
	Analytics     []AnalyticsRef
	Activities    []schedule.Activity
}

// MetricAggregator is the slice of the analytics aggregator the dispatcher
// depends on.
type MetricAggregator interface {
	Aggregate(ctx context.Context, query analytics.MetricQuery, credential string) (*analytics.AggregatedResult, error)
}

// Dispatcher validates and executes the function calls the router returned.
type Dispatcher struct {
	catalog    *Catalog
	queries    repository.Querier
	schedule   schedule.Source
	aggregator MetricAggregator
	model      ChatModel
	logger     *slog.Logger
	now        func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(catalog *Catalog, queries repository.Querier, scheduleSource schedule.Source, aggregator MetricAggregator, model ChatModel, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		catalog:    catalog,
		queries:    queries,
		schedule:   scheduleSource,
		aggregator: aggregator,
		model:      model,
		logger:     logger.With("component", "function_dispatcher"),
		now:        time.Now,
	}
}

// Dispatch executes each call in the order the model returned them. Unknown
// function names are skipped for forward compatibility; argument bags that do
// not match the declared schema drop that one call, never the request. Every
// handler failure is recovered into user-facing text, so Dispatch itself
// cannot fail.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []FunctionCall, credential string) []Contribution {
	var contributions []Contribution
	for _, call := range calls {
		if !d.catalog.Has(call.Name) {
			d.logger.WarnContext(ctx, "Model requested an unknown function", "function", call.Name)
			continue
		}
		if err := d.catalog.ValidateArgs(call.Name, call.Arguments); err != nil {
			d.logger.WarnContext(ctx, "Dropping function call with invalid arguments", "function", call.Name, "error", err)
			continue
		}

		switch call.Name {
		case fnProductSearch:
			contributions = append(contributions, d.handleProductSearch(ctx, call.Arguments))
		case fnPractitionerSearch:
			contributions = append(contributions, d.handlePractitionerSearch(ctx, call.Arguments))
		case fnScheduleLookup:
			contributions = append(contributions, d.handleScheduleLookup(ctx, call.Arguments, credential))
		case fnAnalyticsLookup:
			contributions = append(contributions, d.handleAnalyticsLookup(ctx, call.Arguments, credential))
		}
	}
	return contributions
}
