package server

import (
	"context"
	"net/http"
	"time"
)

const healthPollInterval = 100 * time.Millisecond

// WaitForHealthy polls baseURL/health until it answers 200 OK or ctx ends.
func WaitForHealthy(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: time.Second}

	for {
		if healthy(ctx, client, baseURL+"/health") {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthPollInterval):
		}
	}
}

func healthy(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
