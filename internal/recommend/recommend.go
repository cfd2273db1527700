package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"sunnysips/internal/sun"
)

// DefaultMaxItems caps the full ranked list.
const DefaultMaxItems = 20

const (
	maxDurationWeight    = 55.0
	sunnyConditionWeight = 30.0
	otherConditionWeight = 18.0
	maxSoonnessWeight    = 20.0
	soonnessDecayPerHour = 1.6
	preferredBonus       = 12.0
)

// Preferences are the caller's recommendation knobs.
type Preferences struct {
	MinDurationMinutes int      `json:"min_duration_min"`
	PreferredPeriods   []string `json:"preferred_periods"`
}

// VenueWindows is one venue's merged windows, ready for ranking.
type VenueWindows struct {
	VenueID   string
	VenueName string
	Windows   []sun.SunWindow
}

// Score rates a single window on a 0-100 scale: longer windows, direct sun,
// sooner starts, and matches against the caller's preferred time-of-day
// periods all add weight.
func Score(window sun.SunWindow, now time.Time, preferredPeriods []string) float64 {
	hoursUntil := math.Max(0, window.StartUTC.Sub(now).Hours())

	durationWeight := math.Min(maxDurationWeight, float64(window.DurationMinutes)/10.0)
	conditionWeight := otherConditionWeight
	if window.Condition == sun.ConditionSunny {
		conditionWeight = sunnyConditionWeight
	}
	soonnessWeight := math.Max(0, maxSoonnessWeight-hoursUntil*soonnessDecayPerHour)

	bonus := 0.0
	if matchesPreference(window.StartLocal, preferredPeriods) {
		bonus = preferredBonus
	}

	score := durationWeight + conditionWeight + soonnessWeight + bonus
	return round2(math.Min(100, math.Max(0, score)))
}

// Rank produces the sorted recommendation list across all venues: score
// descending, then earliest start, then venue name. When collapse is set each
// venue keeps only its highest-ranked window. The result is capped at maxItems
// (DefaultMaxItems when <= 0). Windows already over are skipped.
func Rank(venues []VenueWindows, now time.Time, preferredPeriods []string, maxItems int, collapse bool) []sun.RecommendationItem {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	items := make([]sun.RecommendationItem, 0)
	for _, v := range venues {
		for _, window := range v.Windows {
			if !window.EndUTC.After(now) {
				continue
			}
			score := Score(window, now, preferredPeriods)
			items = append(items, sun.RecommendationItem{
				VenueID:   v.VenueID,
				VenueName: v.VenueName,
				SunWindow: window,
				Score:     score,
				Reason:    reasonFor(window, now, preferredPeriods),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if !items[i].StartUTC.Equal(items[j].StartUTC) {
			return items[i].StartUTC.Before(items[j].StartUTC)
		}
		return items[i].VenueName < items[j].VenueName
	})

	if collapse {
		seen := make(map[string]bool, len(items))
		collapsed := items[:0]
		for _, item := range items {
			if seen[item.VenueID] {
				continue
			}
			seen[item.VenueID] = true
			collapsed = append(collapsed, item)
		}
		items = collapsed
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func reasonFor(window sun.SunWindow, now time.Time, preferredPeriods []string) string {
	var parts []string
	switch {
	case window.DurationMinutes >= 90:
		parts = append(parts, "long sun window")
	case window.DurationMinutes >= 45:
		parts = append(parts, "solid sun window")
	default:
		parts = append(parts, "short sun window")
	}
	if matchesPreference(window.StartLocal, preferredPeriods) {
		parts = append(parts, "matches preferred period")
	}
	if window.Condition == sun.ConditionSunny {
		parts = append(parts, "high direct-sun potential")
	}
	return strings.Join(parts, ", ")
}

// periodOf buckets a local start time: morning 05-11, lunch 11-14, afternoon
// 14-18, evening 18-23, night otherwise.
func periodOf(local time.Time) string {
	hour := local.Hour()
	switch {
	case hour >= 5 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 14:
		return "lunch"
	case hour >= 14 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 23:
		return "evening"
	default:
		return "night"
	}
}

func matchesPreference(local time.Time, preferredPeriods []string) bool {
	period := periodOf(local)
	for _, preferred := range preferredPeriods {
		if strings.EqualFold(strings.TrimSpace(preferred), period) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
