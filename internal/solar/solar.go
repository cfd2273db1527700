package solar

import (
	"math"
	"time"
)

// Zenith for official sunrise/sunset, includes refraction and solar disc radius.
const officialZenithDeg = 90.833

const coordEpsilon = 1e-6

// Coordinate is a WGS84 latitude/longitude pair. Coordinates are never compared
// with exact equality outside geometry code.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (c Coordinate) almostEqual(other Coordinate) bool {
	return math.Abs(c.Latitude-other.Latitude) < coordEpsilon &&
		math.Abs(c.Longitude-other.Longitude) < coordEpsilon
}

// Window is the civil daylight interval for one date at one coordinate.
type Window struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Contains reports whether the instant falls inside the window. The range is
// half-open: sunrise is included, sunset is not.
func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.Sunrise) && at.Before(w.Sunset)
}

// DaylightWindow computes sunrise and sunset for the given date and coordinate,
// expressed in loc. The second return value is false during polar day or polar
// night, when the cosine of the hour angle leaves [-1, 1] and no civil sunrise
// or sunset exists.
func DaylightWindow(date time.Time, coord Coordinate, loc *time.Location) (Window, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date = date.In(loc)

	sunrise, riseOK := sunEvent(date, coord, loc, true)
	sunset, setOK := sunEvent(date, coord, loc, false)
	if !riseOK || !setOK {
		return Window{}, false
	}
	return Window{Sunrise: sunrise, Sunset: sunset}, true
}

// sunEvent evaluates the standard sunrise/sunset equation (solar mean anomaly,
// true longitude, right ascension, hour angle) for one event on one date.
func sunEvent(date time.Time, coord Coordinate, loc *time.Location, rising bool) (time.Time, bool) {
	dayOfYear := float64(date.YearDay())
	lngHour := coord.Longitude / 15.0

	var approx float64
	if rising {
		approx = dayOfYear + ((6.0 - lngHour) / 24.0)
	} else {
		approx = dayOfYear + ((18.0 - lngHour) / 24.0)
	}

	// Solar mean anomaly and true longitude.
	meanAnomaly := (0.9856 * approx) - 3.289
	trueLon := meanAnomaly +
		(1.916 * sinDeg(meanAnomaly)) +
		(0.020 * sinDeg(2*meanAnomaly)) +
		282.634
	trueLon = normalizeDeg(trueLon)

	// Right ascension, pulled into the same quadrant as the true longitude,
	// then converted to hours.
	rightAscension := normalizeDeg(atanDeg(0.91764 * tanDeg(trueLon)))
	lonQuadrant := math.Floor(trueLon/90.0) * 90.0
	raQuadrant := math.Floor(rightAscension/90.0) * 90.0
	rightAscension = (rightAscension + (lonQuadrant - raQuadrant)) / 15.0

	// Solar declination.
	sinDec := 0.39782 * sinDeg(trueLon)
	cosDec := cosDeg(asinDeg(sinDec))

	// Local hour angle. Out of [-1, 1] means the sun never crosses the
	// official zenith on this date at this latitude.
	cosH := (cosDeg(officialZenithDeg) - (sinDec * sinDeg(coord.Latitude))) /
		(cosDec * cosDeg(coord.Latitude))
	if cosH > 1 || cosH < -1 {
		return time.Time{}, false
	}

	var hourAngle float64
	if rising {
		hourAngle = 360.0 - acosDeg(cosH)
	} else {
		hourAngle = acosDeg(cosH)
	}
	hourAngle /= 15.0

	meanTime := hourAngle + rightAscension - (0.06571 * approx) - 6.622
	ut := normalizeHours(meanTime - lngHour)

	// Apply the local offset, rolling the date by one day when the local hour
	// leaves [0, 24).
	offset := zoneOffsetHours(date, loc)
	localHour := ut + offset
	dayShift := 0
	if localHour < 0 {
		localHour += 24
		dayShift = -1
	} else if localHour >= 24 {
		localHour -= 24
		dayShift = 1
	}

	hour := int(localHour)
	minuteF := (localHour - float64(hour)) * 60.0
	minute := int(minuteF)
	second := int((minuteF - float64(minute)) * 60.0)

	event := time.Date(date.Year(), date.Month(), date.Day()+dayShift,
		hour, minute, second, 0, loc)
	return event, true
}

func zoneOffsetHours(date time.Time, loc *time.Location) float64 {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	_, offsetSec := noon.Zone()
	return float64(offsetSec) / 3600.0
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

func normalizeHours(h float64) float64 {
	h = math.Mod(h, 24.0)
	if h < 0 {
		h += 24.0
	}
	return h
}

func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180.0) }
func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180.0) }
func tanDeg(deg float64) float64 { return math.Tan(deg * math.Pi / 180.0) }

func asinDeg(x float64) float64 { return math.Asin(x) * 180.0 / math.Pi }
func acosDeg(x float64) float64 { return math.Acos(x) * 180.0 / math.Pi }
func atanDeg(x float64) float64 { return math.Atan(x) * 180.0 / math.Pi }
