package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SnapshotClient reads the bulk, per-area snapshot feed published by the
// snapshot generator. Snapshots are less targeted than the live endpoint but
// survive backend outages.
type SnapshotClient struct {
	baseURL string
	client  *http.Client
}

func NewSnapshotClient(baseURL string, client *http.Client) *SnapshotClient {
	return &SnapshotClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  ensureClient(client),
	}
}

func (c *SnapshotClient) Configured() bool {
	return c.baseURL != ""
}

// AreaSnapshot is one area file from the feed.
type AreaSnapshot struct {
	GeneratedAtUTC time.Time      `json:"generated_at_utc"`
	Area           string         `json:"area"`
	Snapshots      []SnapshotSlot `json:"snapshots"`
}

// SnapshotSlot is one time slot across every venue in the area.
type SnapshotSlot struct {
	TimeUTC       time.Time     `json:"time_utc"`
	TimeLocal     string        `json:"time_local"`
	CloudCoverPct float64       `json:"cloud_cover_pct"`
	Cafes         []SnapshotRow `json:"cafes"`
}

// SnapshotRow is one venue's computed exposure inside a slot.
type SnapshotRow struct {
	OSMID           int64   `json:"osm_id"`
	Name            string  `json:"name"`
	SunnyScore      float64 `json:"sunny_score"`
	SunnyFraction   float64 `json:"sunny_fraction"`
	SunElevationDeg float64 `json:"sun_elevation_deg"`
	SunAzimuthDeg   float64 `json:"sun_azimuth_deg"`
}

// FetchArea retrieves the latest snapshot file for one area.
func (c *SnapshotClient) FetchArea(ctx context.Context, area string) (*AreaSnapshot, error) {
	endpoint := fmt.Sprintf("%s/latest/%s.json", c.baseURL, url.PathEscape(area))

	var payload AreaSnapshot
	if err := getJSON(ctx, c.client, "snapshot feed", endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Snapshots) == 0 {
		return nil, fmt.Errorf("snapshot feed for %s is empty", area)
	}
	return &payload, nil
}
