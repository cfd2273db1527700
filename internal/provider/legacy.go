package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sunnysips/internal/city"
	"sunnysips/internal/sun"
)

// LegacyClient talks to the older flat-series outlook endpoint. Its payload is
// normalized here into the same Outlook shape the rest of the engine uses.
type LegacyClient struct {
	baseURL string
	client  *http.Client
}

func NewLegacyClient(baseURL string, client *http.Client) *LegacyClient {
	return &LegacyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  ensureClient(client),
	}
}

func (c *LegacyClient) Configured() bool {
	return c.baseURL != ""
}

type legacyResponse struct {
	CafeID   string       `json:"cafe_id"`
	Timezone string       `json:"timezone"`
	Hours    []legacyHour `json:"hours"`
}

type legacyHour struct {
	Time      string   `json:"time"`
	Condition string   `json:"condition"`
	Score     float64  `json:"score"`
	Clouds    *float64 `json:"clouds"`
}

// FetchSeries retrieves and normalizes the legacy hourly series. Missing
// fields are defaulted: the city timezone, fallback_used false, generated_at
// now. Windows are left for the caller to merge.
func (c *LegacyClient) FetchSeries(ctx context.Context, venueID, cityID string, days int) (*sun.Outlook, error) {
	query := url.Values{}
	query.Set("cafe_id", venueID)
	query.Set("days", strconv.Itoa(days))

	endpoint := fmt.Sprintf("%s/api/v1/outlook?%s", c.baseURL, query.Encode())

	var payload legacyResponse
	if err := getJSON(ctx, c.client, "legacy outlook", endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Hours) == 0 {
		return nil, fmt.Errorf("legacy outlook returned no hours")
	}

	cityCfg := city.Get(cityID)
	timezone := payload.Timezone
	if timezone == "" {
		timezone = cityCfg.Timezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().UTC()
	hourly := make([]sun.ExposurePoint, 0, len(payload.Hours))
	for _, hour := range payload.Hours {
		ts, err := time.Parse(time.RFC3339, hour.Time)
		if err != nil {
			continue
		}
		ts = ts.UTC()

		condition := sun.Classify(sun.ClassifyInput{
			Score:         hour.Score,
			CloudCoverPct: hour.Clouds,
			RawCondition:  hour.Condition,
		})
		hourly = append(hourly, sun.ExposurePoint{
			TimeUTC:        ts,
			TimeLocal:      ts.In(loc),
			Timezone:       timezone,
			Condition:      condition,
			RawCondition:   hour.Condition,
			Score:          hour.Score,
			ConfidenceHint: sun.ConfidenceHint(ts.Sub(now).Hours()),
			CloudCoverPct:  hour.Clouds,
		})
	}
	if len(hourly) == 0 {
		return nil, fmt.Errorf("legacy outlook had no parseable hours")
	}

	return &sun.Outlook{
		VenueID:        venueID,
		CityID:         cityCfg.CityID,
		Timezone:       timezone,
		DataStatus:     sun.StatusFresh,
		ProviderUsed:   "legacy",
		FallbackUsed:   false,
		Hourly:         hourly,
		GeneratedAtUTC: now,
	}, nil
}
