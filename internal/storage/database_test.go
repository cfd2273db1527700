package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunnysips/internal/sun"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleOutlook() *sun.Outlook {
	start := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	freshness := 0.0
	return &sun.Outlook{
		VenueID:        "osm-12345",
		CityID:         "copenhagen",
		Timezone:       "Europe/Copenhagen",
		DataStatus:     sun.StatusFresh,
		FreshnessHours: &freshness,
		ProviderUsed:   "primary",
		Hourly: []sun.ExposurePoint{
			{TimeUTC: start, Condition: sun.ConditionSunny, Score: 80},
			{TimeUTC: start.Add(time.Hour), Condition: sun.ConditionSunny, Score: 60},
		},
		Windows: []sun.SunWindow{
			{StartUTC: start, EndUTC: start.Add(2 * time.Hour), DurationMinutes: 120, Condition: sun.ConditionSunny},
			{StartUTC: start.Add(4 * time.Hour), EndUTC: start.Add(5 * time.Hour), DurationMinutes: 60, Condition: sun.ConditionPartial},
		},
		GeneratedAtUTC: start,
	}
}

func TestSaveOutlookSummarizes(t *testing.T) {
	db := testDB(t)

	recordedAt := time.Now().UTC()
	require.NoError(t, db.SaveOutlook(sampleOutlook(), recordedAt))

	record, err := db.GetLatestRecord("osm-12345")
	require.NoError(t, err)

	assert.Equal(t, "osm-12345", record.VenueID)
	assert.Equal(t, "copenhagen", record.CityID)
	assert.Equal(t, "fresh", record.DataStatus)
	assert.Equal(t, "primary", record.ProviderUsed)
	assert.Equal(t, 2, record.HourlyCount)
	assert.Equal(t, 2, record.WindowCount)
	assert.Equal(t, 3.0, record.SunnyHours)
	assert.Equal(t, 80.0, record.MaxScore)
	assert.Equal(t, 70.0, record.AvgScore)

	require.NotNil(t, record.BestWindowStartUTC)
	assert.Equal(t, 120, record.BestWindowMinutes)
	assert.Equal(t, "sunny", record.BestWindowCondition)
}

func TestGetRecordsWithLimit(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.SaveOutlook(sampleOutlook(), time.Now().UTC().Add(time.Duration(i)*time.Minute)))
	}

	records, err := db.GetRecordsWithLimit("osm-12345", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// Newest first.
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].RecordedAt.After(records[i-1].RecordedAt))
	}

	records, err = db.GetRecordsWithLimit("osm-other", 3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetRecordsByRange(t *testing.T) {
	db := testDB(t)

	now := time.Now().UTC()
	require.NoError(t, db.SaveOutlook(sampleOutlook(), now.Add(-2*time.Hour)))
	require.NoError(t, db.SaveOutlook(sampleOutlook(), now))

	records, err := db.GetRecordsByRange("osm-12345", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCleanOldRecords(t *testing.T) {
	db := testDB(t)

	now := time.Now().UTC()
	require.NoError(t, db.SaveOutlook(sampleOutlook(), now.Add(-72*time.Hour)))
	require.NoError(t, db.SaveOutlook(sampleOutlook(), now))

	require.NoError(t, db.CleanOldRecords(24*time.Hour))

	records, err := db.GetRecordsWithLimit("osm-12345", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
