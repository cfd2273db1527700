package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sunnysips/internal/sun"
)

// PrimaryClient talks to the live sun-outlook endpoint.
type PrimaryClient struct {
	baseURL string
	client  *http.Client
}

func NewPrimaryClient(baseURL string, client *http.Client) *PrimaryClient {
	return &PrimaryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  ensureClient(client),
	}
}

// Configured reports whether a base endpoint was provided.
func (c *PrimaryClient) Configured() bool {
	return c.baseURL != ""
}

// FetchOutlook retrieves the full outlook for one venue. The response already
// carries the wire Outlook shape.
func (c *PrimaryClient) FetchOutlook(ctx context.Context, venueID, cityID string, days, minDurationMin int) (*sun.Outlook, error) {
	query := url.Values{}
	query.Set("city_id", cityID)
	query.Set("days", strconv.Itoa(days))
	query.Set("min_duration_min", strconv.Itoa(minDurationMin))

	endpoint := fmt.Sprintf("%s/api/cafe/%s/sun-outlook?%s",
		c.baseURL, url.PathEscape(venueID), query.Encode())

	var outlook sun.Outlook
	if err := getJSON(ctx, c.client, "primary outlook", endpoint, &outlook); err != nil {
		return nil, err
	}

	if outlook.VenueID == "" {
		outlook.VenueID = venueID
	}
	return &outlook, nil
}
