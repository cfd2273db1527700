package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 20 * time.Second

func ensureClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultTimeout}
}

func getJSON(ctx context.Context, client *http.Client, name, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", name, err)
	}
	req.Header.Set("User-Agent", "SunnySips/1.0 (engine)")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s bad status: %s", name, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", name, err)
	}
	return nil
}
