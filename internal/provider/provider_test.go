package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunnysips/internal/solar"
	"sunnysips/internal/sun"
)

func mockedClient(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestPrimaryFetchOutlook(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		"http://primary.test/api/cafe/osm-1/sun-outlook?city_id=copenhagen&days=2&min_duration_min=30",
		httpmock.NewStringResponder(200, `{
			"city_id": "copenhagen",
			"timezone": "Europe/Copenhagen",
			"data_status": "fresh",
			"freshness_hours": 0,
			"hourly": [
				{"time_utc": "2025-06-01T10:00:00Z", "condition": "sunny", "score": 80}
			],
			"windows": []
		}`))

	c := NewPrimaryClient("http://primary.test", client)
	require.True(t, c.Configured())

	outlook, err := c.FetchOutlook(context.Background(), "osm-1", "copenhagen", 2, 30)
	require.NoError(t, err)

	assert.Equal(t, "osm-1", outlook.VenueID, "venue id is filled when the response omits it")
	assert.Equal(t, "copenhagen", outlook.CityID)
	require.Len(t, outlook.Hourly, 1)
	assert.Equal(t, sun.ConditionSunny, outlook.Hourly[0].Condition)
}

func TestPrimaryBadStatus(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		`=~^http://primary\.test/`,
		httpmock.NewStringResponder(502, "bad gateway"))

	c := NewPrimaryClient("http://primary.test", client)
	_, err := c.FetchOutlook(context.Background(), "osm-1", "copenhagen", 1, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")
}

func TestPrimaryNotConfigured(t *testing.T) {
	c := NewPrimaryClient("", nil)
	assert.False(t, c.Configured())
}

func TestLegacyFetchSeriesNormalizes(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		"http://legacy.test/api/v1/outlook?cafe_id=osm-1&days=1",
		httpmock.NewStringResponder(200, `{
			"cafe_id": "osm-1",
			"hours": [
				{"time": "2025-06-01T10:00:00Z", "condition": "sunny", "score": 70, "clouds": 20},
				{"time": "2025-06-01T11:00:00Z", "condition": "cloudy", "score": 10, "clouds": 95},
				{"time": "not-a-time", "condition": "sunny", "score": 70}
			]
		}`))

	c := NewLegacyClient("http://legacy.test", client)
	outlook, err := c.FetchSeries(context.Background(), "osm-1", "copenhagen", 1)
	require.NoError(t, err)

	assert.Equal(t, "legacy", outlook.ProviderUsed)
	assert.Equal(t, sun.StatusFresh, outlook.DataStatus)
	assert.Equal(t, "Europe/Copenhagen", outlook.Timezone, "missing timezone defaults to the city's")
	assert.False(t, outlook.FallbackUsed)

	require.Len(t, outlook.Hourly, 2, "unparseable hours are skipped")
	assert.Equal(t, sun.ConditionSunny, outlook.Hourly[0].Condition)
	assert.Equal(t, sun.ConditionShaded, outlook.Hourly[1].Condition, "heavy overcast overrides")
	assert.Nil(t, outlook.Windows, "windows are left for the caller to merge")
}

func TestLegacyEmptySeries(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		"http://legacy.test/api/v1/outlook?cafe_id=osm-1&days=1",
		httpmock.NewStringResponder(200, `{"cafe_id": "osm-1", "hours": []}`))

	c := NewLegacyClient("http://legacy.test", client)
	_, err := c.FetchSeries(context.Background(), "osm-1", "copenhagen", 1)
	assert.Error(t, err)
}

func TestSnapshotFetchArea(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		"http://snap.test/latest/core-cph.json",
		httpmock.NewStringResponder(200, `{
			"generated_at_utc": "2025-06-01T09:00:00Z",
			"area": "core-cph",
			"snapshots": [
				{
					"time_utc": "2025-06-01T10:00:00Z",
					"time_local": "2025-06-01T12:00:00+02:00",
					"cloud_cover_pct": 15,
					"cafes": [
						{"osm_id": 12345, "name": "Alpha", "sunny_score": 72.5, "sunny_fraction": 0.8, "sun_elevation_deg": 40.1, "sun_azimuth_deg": 175.0}
					]
				}
			]
		}`))

	c := NewSnapshotClient("http://snap.test", client)
	snap, err := c.FetchArea(context.Background(), "core-cph")
	require.NoError(t, err)

	assert.Equal(t, "core-cph", snap.Area)
	require.Len(t, snap.Snapshots, 1)
	require.Len(t, snap.Snapshots[0].Cafes, 1)
	assert.Equal(t, int64(12345), snap.Snapshots[0].Cafes[0].OSMID)
	assert.Equal(t, 72.5, snap.Snapshots[0].Cafes[0].SunnyScore)
}

func TestSnapshotEmptyFeed(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		"http://snap.test/latest/core-cph.json",
		httpmock.NewStringResponder(200, `{"area": "core-cph", "snapshots": []}`))

	c := NewSnapshotClient("http://snap.test", client)
	_, err := c.FetchArea(context.Background(), "core-cph")
	assert.Error(t, err)
}

func TestWeatherFeedCloudSeries(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		`=~^http://weather\.test/v1/forecast`,
		httpmock.NewStringResponder(200, `{
			"hourly": {
				"time": ["2025-06-01T10:00", "2025-06-01T11:00", "2025-06-01T23:00"],
				"cloudcover": [10, 55, 90]
			}
		}`))

	c := NewWeatherFeedClient("http://weather.test", client)
	start := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	series, err := c.CloudSeries(context.Background(), solar.Coordinate{Latitude: 55.68, Longitude: 12.57}, start, end)
	require.NoError(t, err)

	require.Len(t, series, 2, "hours outside the range are dropped")
	assert.Equal(t, 10.0, series[start])
	assert.Equal(t, 55.0, series[start.Add(time.Hour)])
}

func TestWeatherFeedNoHoursInRange(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET",
		`=~^http://weather\.test/v1/forecast`,
		httpmock.NewStringResponder(200, `{
			"hourly": {"time": ["2025-06-03T10:00"], "cloudcover": [50]}
		}`))

	c := NewWeatherFeedClient("http://weather.test", client)
	start := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	_, err := c.CloudSeries(context.Background(), solar.Coordinate{}, start, start.Add(6*time.Hour))
	assert.Error(t, err)
}
