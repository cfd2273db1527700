package storage

import (
	"time"

	"gorm.io/gorm"
)

// OutlookRecord is one persisted summary of a resolved outlook, written by
// the refresh loop so history survives provider outages and restarts.
type OutlookRecord struct {
	gorm.Model
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`

	VenueID string `gorm:"index" json:"cafe_id"`
	CityID  string `json:"city_id"`

	// Resolution
	DataStatus   string `json:"data_status"`
	ProviderUsed string `json:"provider_used"`
	FallbackUsed bool   `json:"fallback_used"`

	// Exposure summary
	SunnyHours  float64 `json:"sunny_hours"`
	HourlyCount int     `json:"hourly_count"`
	WindowCount int     `json:"window_count"`
	MaxScore    float64 `json:"max_score"`
	AvgScore    float64 `json:"avg_score"`

	// Best window
	BestWindowStartUTC  *time.Time `json:"best_window_start_utc,omitempty"`
	BestWindowMinutes   int        `json:"best_window_minutes"`
	BestWindowCondition string     `json:"best_window_condition,omitempty"`
}

type DailySunStats struct {
	Date          time.Time `json:"date"`
	MaxSunnyHours float64   `json:"max_sunny_hours"`
	MaxScore      float64   `json:"max_score"`
	AvgScore      float64   `json:"avg_score"`
	RecordCount   int64     `json:"record_count"`
}
