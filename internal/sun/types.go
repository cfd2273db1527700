package sun

import (
	"time"
)

// Condition is the three-level exposure bucket for a sampled hour or a merged
// window.
type Condition string

const (
	ConditionSunny   Condition = "sunny"
	ConditionPartial Condition = "partial"
	ConditionShaded  Condition = "shaded"
)

// SunAvailable reports whether the bucket counts toward a sun window.
func (c Condition) SunAvailable() bool {
	return c == ConditionSunny || c == ConditionPartial
}

// DataStatus tags how fresh the data behind an outlook is.
type DataStatus string

const (
	StatusFresh       DataStatus = "fresh"
	StatusStale       DataStatus = "stale"
	StatusUnavailable DataStatus = "unavailable"
)

// ExposurePoint is one sampled hour of sun exposure for one venue.
type ExposurePoint struct {
	TimeUTC        time.Time `json:"time_utc"`
	TimeLocal      time.Time `json:"time_local"`
	Timezone       string    `json:"timezone"`
	Condition      Condition `json:"condition"`
	RawCondition   string    `json:"raw_condition,omitempty"`
	Score          float64   `json:"score"`
	ConfidenceHint float64   `json:"confidence_hint"`
	CloudCoverPct  *float64  `json:"cloud_cover_pct,omitempty"`
}

// SunWindow is a contiguous interval of sun availability derived from hourly
// points. Never user-edited; start is always before end.
type SunWindow struct {
	StartUTC        time.Time `json:"start_utc"`
	EndUTC          time.Time `json:"end_utc"`
	StartLocal      time.Time `json:"start_local"`
	EndLocal        time.Time `json:"end_local"`
	DurationMinutes int       `json:"duration_min"`
	Condition       Condition `json:"condition"`
}

// Outlook is the engine's answer for one venue: ordered hourly points, the
// windows derived from them, and honest freshness metadata.
type Outlook struct {
	VenueID        string          `json:"cafe_id"`
	CityID         string          `json:"city_id"`
	Timezone       string          `json:"timezone"`
	DataStatus     DataStatus      `json:"data_status"`
	FreshnessHours *float64        `json:"freshness_hours"`
	ProviderUsed   string          `json:"provider_used,omitempty"`
	FallbackUsed   bool            `json:"fallback_used"`
	Hourly         []ExposurePoint `json:"hourly"`
	Windows        []SunWindow     `json:"windows"`
	GeneratedAtUTC time.Time       `json:"generated_at_utc"`
}

// RecommendationItem couples one venue with its best-scoring sun window.
// Created fresh per request, never mutated.
type RecommendationItem struct {
	VenueID   string `json:"cafe_id"`
	VenueName string `json:"cafe_name"`
	SunWindow
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RecommendationList is the ranked answer for a favorites request.
type RecommendationList struct {
	CityID         string               `json:"city_id"`
	Timezone       string               `json:"timezone"`
	DataStatus     DataStatus           `json:"data_status"`
	FreshnessHours *float64             `json:"freshness_hours"`
	ProviderUsed   string               `json:"provider_used,omitempty"`
	FallbackUsed   bool                 `json:"fallback_used"`
	Items          []RecommendationItem `json:"items"`
	GeneratedAtUTC time.Time            `json:"generated_at_utc"`
}

// ConfidenceHint is a heuristic confidence indicator for a forecast hour, not a
// probabilistic uncertainty. It decays stepwise with look-ahead horizon.
func ConfidenceHint(hoursAhead float64) float64 {
	switch {
	case hoursAhead <= 24:
		return 0.9
	case hoursAhead <= 48:
		return 0.8
	case hoursAhead <= 72:
		return 0.72
	case hoursAhead <= 96:
		return 0.65
	case hoursAhead <= 120:
		return 0.58
	default:
		return 0.5
	}
}
