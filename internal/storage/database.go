package storage

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sunnysips/internal/sun"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&OutlookRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// SaveOutlook summarizes a resolved outlook into one history row.
func (d *Database) SaveOutlook(outlook *sun.Outlook, recordedAt time.Time) error {
	record := &OutlookRecord{
		RecordedAt:   recordedAt,
		VenueID:      outlook.VenueID,
		CityID:       outlook.CityID,
		DataStatus:   string(outlook.DataStatus),
		ProviderUsed: outlook.ProviderUsed,
		FallbackUsed: outlook.FallbackUsed,
		HourlyCount:  len(outlook.Hourly),
		WindowCount:  len(outlook.Windows),
	}

	var scoreTotal float64
	for _, point := range outlook.Hourly {
		scoreTotal += point.Score
		if point.Score > record.MaxScore {
			record.MaxScore = point.Score
		}
	}
	if len(outlook.Hourly) > 0 {
		record.AvgScore = scoreTotal / float64(len(outlook.Hourly))
	}

	for i, window := range outlook.Windows {
		record.SunnyHours += float64(window.DurationMinutes) / 60
		if i == 0 || window.DurationMinutes > record.BestWindowMinutes {
			start := window.StartUTC
			record.BestWindowStartUTC = &start
			record.BestWindowMinutes = window.DurationMinutes
			record.BestWindowCondition = string(window.Condition)
		}
	}

	return d.db.Create(record).Error
}

func (d *Database) GetLatestRecord(venueID string) (*OutlookRecord, error) {
	var record OutlookRecord
	result := d.db.Where("venue_id = ?", venueID).
		Order("recorded_at desc").
		First(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (d *Database) GetRecordsByRange(venueID string, from, to time.Time) ([]OutlookRecord, error) {
	var records []OutlookRecord
	result := d.db.Where("venue_id = ? AND recorded_at BETWEEN ? AND ?", venueID, from, to).
		Order("recorded_at desc").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) GetRecordsWithLimit(venueID string, limit int) ([]OutlookRecord, error) {
	var records []OutlookRecord
	result := d.db.Where("venue_id = ?", venueID).
		Order("recorded_at desc").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) GetDailyStats(venueID string, date time.Time) (*DailySunStats, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var stats DailySunStats
	stats.Date = startOfDay

	var record OutlookRecord
	result := d.db.Where("venue_id = ? AND recorded_at BETWEEN ? AND ?", venueID, startOfDay, endOfDay).
		Order("sunny_hours desc").
		First(&record)
	if result.Error == nil {
		stats.MaxSunnyHours = record.SunnyHours
	}

	result = d.db.Where("venue_id = ? AND recorded_at BETWEEN ? AND ?", venueID, startOfDay, endOfDay).
		Order("max_score desc").
		First(&record)
	if result.Error == nil {
		stats.MaxScore = record.MaxScore
	}

	var avgScore float64
	d.db.Model(&OutlookRecord{}).
		Where("venue_id = ? AND recorded_at BETWEEN ? AND ?", venueID, startOfDay, endOfDay).
		Select("AVG(avg_score)").
		Scan(&avgScore)
	stats.AvgScore = avgScore

	d.db.Model(&OutlookRecord{}).
		Where("venue_id = ? AND recorded_at BETWEEN ? AND ?", venueID, startOfDay, endOfDay).
		Count(&stats.RecordCount)

	return &stats, nil
}

func (d *Database) CleanOldRecords(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return d.db.Where("recorded_at < ?", cutoff).Delete(&OutlookRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
