package chat

import (
	"github.com/aruna-wellness/backend/internal/repository"
	"github.com/aruna-wellness/backend/internal/schedule"
)

// Reply is the single payload returned to the caller.
type Reply struct {
	Text               string                    `json:"text"`
	Products           []repository.Product      `json:"products"`
	Practitioners      []repository.Practitioner `json:"practitioners"`
	AnalyticsData      []AnalyticsRef            `json:"analyticsData"`
	ScheduleActivities []schedule.Activity       `json:"scheduleActivities"`
}

const maxListedResults = 3

// Compose merges the router's free text with each handler contribution, in
// order.
//
// Text priority: when the model already produced free text, product and
// practitioner lead-ins are suppressed (the model's own description of those
// results wins). Schedule and analytics texts always overwrite, because they
// describe data the model had not seen at routing time.
//
// Duplicate calls to the same function merge: product and practitioner lists
// concatenate, de-duplicate by ID and re-truncate; analytics entries append;
// for schedule the last call wins.
func Compose(routerText string, contributions []Contribution) Reply {
	reply := Reply{
		Text:               routerText,
		Products:           []repository.Product{},
		Practitioners:      []repository.Practitioner{},
		AnalyticsData:      []AnalyticsRef{},
		ScheduleActivities: []schedule.Activity{},
	}

	for _, c := range contributions {
		switch c.Kind {
		case KindProducts:
			reply.Products = append(reply.Products, c.Products...)
			if reply.Text == "" {
				reply.Text = c.Text
			}
		case KindPractitioners:
			reply.Practitioners = append(reply.Practitioners, c.Practitioners...)
			if reply.Text == "" {
				reply.Text = c.Text
			}
		case KindSchedule:
			reply.ScheduleActivities = c.Activities
			if reply.ScheduleActivities == nil {
				reply.ScheduleActivities = []schedule.Activity{}
			}
			if c.Text != "" {
				reply.Text = c.Text
			}
		case KindAnalytics:
			reply.AnalyticsData = append(reply.AnalyticsData, c.Analytics...)
			if c.Text != "" {
				reply.Text = c.Text
			}
		}
	}

	reply.Products = dedupeProducts(reply.Products)
	reply.Practitioners = dedupePractitioners(reply.Practitioners)
	return reply
}

func dedupeProducts(products []repository.Product) []repository.Product {
	seen := make(map[int64]struct{}, len(products))
	out := products[:0]
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
		if len(out) == maxListedResults {
			break
		}
	}
	return out
}

func dedupePractitioners(practitioners []repository.Practitioner) []repository.Practitioner {
	seen := make(map[int64]struct{}, len(practitioners))
	out := practitioners[:0]
	for _, p := range practitioners {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
		if len(out) == maxListedResults {
			break
		}
	}
	return out
}
