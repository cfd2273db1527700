package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var copenhagen = Coordinate{Latitude: 55.676, Longitude: 12.568}

func TestDaylightWindowCopenhagenSummer(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)

	date := time.Date(2025, time.June, 21, 0, 0, 0, 0, loc)
	window, ok := DaylightWindow(date, copenhagen, loc)
	require.True(t, ok)

	assert.True(t, window.Sunrise.Before(window.Sunset))
	// Midsummer in Copenhagen: sunrise around 04:25, sunset around 21:57.
	assert.InDelta(t, 4, window.Sunrise.Hour(), 1)
	assert.InDelta(t, 21, window.Sunset.Hour(), 1)

	noon := time.Date(2025, time.June, 21, 12, 0, 0, 0, loc)
	assert.True(t, window.Contains(noon))

	midnight := time.Date(2025, time.June, 21, 0, 30, 0, 0, loc)
	assert.False(t, window.Contains(midnight))
}

func TestDaylightWindowCopenhagenWinter(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)

	date := time.Date(2025, time.December, 21, 0, 0, 0, 0, loc)
	window, ok := DaylightWindow(date, copenhagen, loc)
	require.True(t, ok)

	// Around seven hours of daylight at the winter solstice.
	daylight := window.Sunset.Sub(window.Sunrise)
	assert.Greater(t, daylight, 5*time.Hour)
	assert.Less(t, daylight, 9*time.Hour)
}

func TestDaylightWindowPolarNight(t *testing.T) {
	svalbard := Coordinate{Latitude: 78.22, Longitude: 15.63}

	date := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, ok := DaylightWindow(date, svalbard, time.UTC)
	assert.False(t, ok)
}

func TestDaylightWindowPolarDay(t *testing.T) {
	svalbard := Coordinate{Latitude: 78.22, Longitude: 15.63}

	date := time.Date(2025, time.June, 21, 0, 0, 0, 0, time.UTC)
	_, ok := DaylightWindow(date, svalbard, time.UTC)
	assert.False(t, ok)
}

func TestWindowContainsHalfOpen(t *testing.T) {
	window := Window{
		Sunrise: time.Date(2025, time.June, 1, 5, 0, 0, 0, time.UTC),
		Sunset:  time.Date(2025, time.June, 1, 21, 0, 0, 0, time.UTC),
	}

	assert.True(t, window.Contains(window.Sunrise))
	assert.False(t, window.Contains(window.Sunset))
	assert.True(t, window.Contains(window.Sunrise.Add(8*time.Hour)))
	assert.False(t, window.Contains(window.Sunrise.Add(-time.Minute)))
}

func TestCoordinateAlmostEqual(t *testing.T) {
	base := Coordinate{Latitude: 55.676, Longitude: 12.568}

	assert.True(t, base.almostEqual(Coordinate{Latitude: 55.6760000001, Longitude: 12.5680000001}))
	assert.False(t, base.almostEqual(Coordinate{Latitude: 55.6761, Longitude: 12.568}))
}
