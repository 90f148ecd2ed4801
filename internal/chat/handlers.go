package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aruna-wellness/backend/internal/analytics"
	"github.com/aruna-wellness/backend/internal/llm"
	"github.com/aruna-wellness/backend/internal/repository"
	"github.com/aruna-wellness/backend/internal/schedule"
)

// User-facing texts. Handler failures are always recovered into one of these
// rather than surfacing raw errors.
const (
	productsLeadIn      = "Here are some products you might like:"
	practitionersLeadIn = "Here are some practitioners who can help:"

	productsApology      = "I'm sorry, I couldn't look up products right now. Please try again later."
	practitionersApology = "I'm sorry, I couldn't look up practitioners right now. Please try again later."
	scheduleApology      = "I'm sorry, I couldn't fetch your schedule right now. Please try again later."
	analyticsApology     = "I'm sorry, I couldn't analyze your health data right now. Please try again later."

	scheduleLoginPrompt  = "Please log in to view your schedule."
	analyticsLoginPrompt = "Please log in to view your health analytics."
)

// Sampling settings for the analysis call. No tools: the second call only
// narrates data that was fetched after the routing decision.
const (
	analysisTemperature = 0.7
	analysisMaxTokens   = 1000
)

// clampCount normalizes the model-supplied result count to [1,3]. A missing
// count means 1. Non-numeric counts never reach here; schema validation drops
// those calls at the dispatcher boundary.
func clampCount(count *float64) int {
	if count == nil {
		return 1
	}
	n := int(*count)
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

// matchesKeywords reports whether any whitespace-separated keyword token is a
// case-insensitive substring of any of the given fields.
func matchesKeywords(keywords string, fields ...string) bool {
	tokens := strings.Fields(strings.ToLower(keywords))
	if len(tokens) == 0 {
		return false
	}
	for _, field := range fields {
		lowered := strings.ToLower(field)
		for _, token := range tokens {
			if strings.Contains(lowered, token) {
				return true
			}
		}
	}
	return false
}

// --- Product search ---

type productSearchArgs struct {
	Keywords string   `json:"keywords"`
	Count    *float64 `json:"count"`
}

func (d *Dispatcher) handleProductSearch(ctx context.Context, raw json.RawMessage) Contribution {
	var args productSearchArgs
	_ = json.Unmarshal(raw, &args)
	count := clampCount(args.Count)

	products, err := d.queries.ListProducts(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Product lookup failed", "error", err)
		return Contribution{Kind: KindProducts, Text: productsApology}
	}

	var inStock []repository.Product
	for _, p := range products {
		if p.Stock > 0 {
			inStock = append(inStock, p)
		}
	}

	var matched []repository.Product
	for _, p := range inStock {
		if matchesKeywords(args.Keywords, p.Name, p.Category, p.Description) {
			matched = append(matched, p)
		}
	}
	// Always show something: with no keyword match, fall back to the first
	// in-stock products instead of an empty list.
	if len(matched) == 0 {
		matched = inStock
	}
	if len(matched) > count {
		matched = matched[:count]
	}

	return Contribution{Kind: KindProducts, Text: productsLeadIn, Products: matched}
}

// --- Practitioner search ---

type practitionerSearchArgs struct {
	Keywords string   `json:"keywords"`
	Count    *float64 `json:"count"`
}

func (d *Dispatcher) handlePractitionerSearch(ctx context.Context, raw json.RawMessage) Contribution {
	var args practitionerSearchArgs
	_ = json.Unmarshal(raw, &args)
	count := clampCount(args.Count)

	practitioners, err := d.queries.ListPractitioners(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Practitioner lookup failed", "error", err)
		return Contribution{Kind: KindPractitioners, Text: practitionersApology}
	}

	var matched []repository.Practitioner
	for _, p := range practitioners {
		if matchesKeywords(args.Keywords, p.Name, p.Specialization, p.Bio) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		matched = practitioners
	}
	if len(matched) > count {
		matched = matched[:count]
	}

	return Contribution{Kind: KindPractitioners, Text: practitionersLeadIn, Practitioners: matched}
}

// --- Schedule lookup ---

type scheduleLookupArgs struct {
	Timing   string `json:"timing"`
	Category string `json:"category"`
}

func scheduleLeadIn(timing schedule.Timing) string {
	switch timing {
	case schedule.TimingNext:
		return "Here is your next activity:"
	case schedule.TimingToday:
		return "Here are today's activities:"
	case schedule.TimingRemaining:
		return "Here are your remaining activities for today:"
	case schedule.TimingUpcoming:
		return "Here are your upcoming activities:"
	case schedule.TimingPending:
		return "Here are your pending activities:"
	}
	return ""
}

func (d *Dispatcher) handleScheduleLookup(ctx context.Context, raw json.RawMessage, credential string) Contribution {
	// Fail closed: without a credential this handler returns an in-band
	// prompt, never an HTTP error.
	if credential == "" {
		return Contribution{Kind: KindSchedule, Text: scheduleLoginPrompt}
	}

	var args scheduleLookupArgs
	_ = json.Unmarshal(raw, &args)
	timing := schedule.Timing(args.Timing)

	activities, err := d.schedule.DailySchedule(ctx, credential)
	if err != nil {
		if errors.Is(err, schedule.ErrUnauthorized) {
			return Contribution{Kind: KindSchedule, Text: scheduleLoginPrompt}
		}
		d.logger.ErrorContext(ctx, "Schedule lookup failed", "error", err)
		return Contribution{Kind: KindSchedule, Text: scheduleApology}
	}

	filtered := schedule.Filter(activities, timing, args.Category, d.now())
	return Contribution{Kind: KindSchedule, Text: scheduleLeadIn(timing), Activities: filtered}
}

// --- Analytics lookup ---

type analyticsLookupArgs struct {
	Metric         string `json:"metric"`
	Timeframe      string `json:"timeframe"`
	IncludeRelated bool   `json:"includeRelated"`
}

func composeAnalysisPrompt(result *analytics.AggregatedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an Ayurvedic wellness guide. Analyze the user's %s data for the timeframe %q and explain what it means for their wellbeing.\n\n", result.Metric, result.Timeframe)
	fmt.Fprintf(&b, "Primary metric (%s):\n%s\n", result.Metric, string(result.Primary))

	if len(result.Related) > 0 {
		// Stable ordering keeps the prompt deterministic for identical data.
		names := make([]string, 0, len(result.Related))
		for name := range result.Related {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\nRelated metrics for holistic context:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "%s:\n%s\n", name, string(result.Related[name]))
		}
	}

	b.WriteString("\nRespond with a short, warm narrative. Where natural, relate the findings to Ayurvedic balance (Vata, Pitta, Kapha) and suggest one gentle adjustment. Do not repeat raw numbers exhaustively.")
	return b.String()
}

func (d *Dispatcher) handleAnalyticsLookup(ctx context.Context, raw json.RawMessage, credential string) Contribution {
	if credential == "" {
		return Contribution{Kind: KindAnalytics, Text: analyticsLoginPrompt}
	}

	var args analyticsLookupArgs
	_ = json.Unmarshal(raw, &args)

	result, err := d.aggregator.Aggregate(ctx, analytics.MetricQuery{
		Metric:         args.Metric,
		Timeframe:      args.Timeframe,
		IncludeRelated: args.IncludeRelated,
	}, credential)
	if err != nil {
		if errors.Is(err, analytics.ErrUnauthorized) {
			return Contribution{Kind: KindAnalytics, Text: analyticsLoginPrompt}
		}
		d.logger.ErrorContext(ctx, "Metric aggregation failed", "metric", args.Metric, "error", err)
		return Contribution{Kind: KindAnalytics, Text: analyticsApology}
	}

	analysis, err := d.model.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: composeAnalysisPrompt(result)},
		},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		d.logger.ErrorContext(ctx, "Analysis call failed", "metric", args.Metric, "error", err)
		return Contribution{Kind: KindAnalytics, Text: analyticsApology}
	}

	refs := []AnalyticsRef{{Type: result.Metric, Timeframe: result.Timeframe}}
	relatedNames := make([]string, 0, len(result.Related))
	for name := range result.Related {
		relatedNames = append(relatedNames, name)
	}
	sort.Strings(relatedNames)
	for _, name := range relatedNames {
		refs = append(refs, AnalyticsRef{Type: name, Timeframe: result.Timeframe})
	}

	return Contribution{Kind: KindAnalytics, Text: analysis.Text, Analytics: refs}
}
