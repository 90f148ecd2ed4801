package schedule

import (
	"sort"
	"strings"
	"time"
)

// Timing selects a time window over a user's activities.
type Timing string

const (
	TimingNext      Timing = "next"
	TimingToday     Timing = "today"
	TimingRemaining Timing = "remaining"
	TimingUpcoming  Timing = "upcoming"
	TimingPending   Timing = "pending"
)

// ValidTiming reports whether s names a supported timing window.
func ValidTiming(s string) bool {
	switch Timing(s) {
	case TimingNext, TimingToday, TimingRemaining, TimingUpcoming, TimingPending:
		return true
	}
	return false
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Filter applies the timing window, then the optional category filter
// (case-insensitive exact match), then the timing-specific truncation.
// All windows except pending sort ascending by activity time before
// truncation, so "next N" semantics are deterministic.
func Filter(activities []Activity, timing Timing, category string, now time.Time) []Activity {
	var filtered []Activity
	for _, act := range activities {
		var include bool
		switch timing {
		case TimingNext, TimingUpcoming:
			include = act.Time.After(now)
		case TimingToday:
			include = sameDay(act.Time, now)
		case TimingRemaining:
			include = sameDay(act.Time, now) && act.Time.After(now)
		case TimingPending:
			include = act.Status == "pending"
		}
		if !include {
			continue
		}
		if category != "" && !strings.EqualFold(act.Category, category) {
			continue
		}
		filtered = append(filtered, act)
	}

	if timing != TimingPending {
		sort.Slice(filtered, func(i, j int) bool {
			return filtered[i].Time.Before(filtered[j].Time)
		})
	}

	switch timing {
	case TimingNext:
		if len(filtered) > 1 {
			filtered = filtered[:1]
		}
	case TimingUpcoming:
		if len(filtered) > 3 {
			filtered = filtered[:3]
		}
	}
	return filtered
}
