package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sunnysips/internal/solar"
)

// WeatherFeedClient samples raw cloud cover from a per-area forecast feed.
// This is the lowest-fidelity source, used only to synthesize short-horizon
// outlooks when nothing richer is reachable.
type WeatherFeedClient struct {
	baseURL string
	client  *http.Client
}

func NewWeatherFeedClient(baseURL string, client *http.Client) *WeatherFeedClient {
	return &WeatherFeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  ensureClient(client),
	}
}

func (c *WeatherFeedClient) Configured() bool {
	return c.baseURL != ""
}

type weatherFeedResponse struct {
	Hourly struct {
		Time       []string  `json:"time"`
		CloudCover []float64 `json:"cloudcover"`
	} `json:"hourly"`
}

// CloudSeries returns hourly cloud cover percentages keyed by UTC hour for the
// requested range.
func (c *WeatherFeedClient) CloudSeries(ctx context.Context, coord solar.Coordinate, startUTC, endUTC time.Time) (map[time.Time]float64, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", coord.Latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", coord.Longitude))
	query.Set("hourly", "cloudcover")
	query.Set("timezone", "UTC")
	query.Set("start_date", startUTC.UTC().Format("2006-01-02"))
	query.Set("end_date", endUTC.UTC().Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, query.Encode())

	var payload weatherFeedResponse
	if err := getJSON(ctx, c.client, "weather feed", endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Hourly.Time) == 0 {
		return nil, fmt.Errorf("weather feed returned no hours")
	}

	series := make(map[time.Time]float64, len(payload.Hourly.Time))
	for i, raw := range payload.Hourly.Time {
		if i >= len(payload.Hourly.CloudCover) {
			break
		}
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			if ts, err = time.Parse(time.RFC3339, raw); err != nil {
				continue
			}
		}
		ts = ts.UTC()
		if ts.Before(startUTC) || ts.After(endUTC) {
			continue
		}
		series[ts] = payload.Hourly.CloudCover[i]
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("weather feed had no hours in range")
	}
	return series, nil
}
