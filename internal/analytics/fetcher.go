package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Error taxonomy for data-API fetches. The credential is forwarded verbatim,
// so an upstream 401/403 maps to ErrUnauthorized; everything else non-2xx is
// ErrUpstream. No retries.
var (
	ErrUnauthorized = errors.New("analytics: unauthorized")
	ErrUpstream     = errors.New("analytics: upstream error")
)

// MetricData is the raw JSON body of one metric endpoint, passed through to
// prompt composition without interpretation.
type MetricData = json.RawMessage

// Fetcher retrieves a single metric's data on behalf of a user.
type Fetcher interface {
	FetchMetric(ctx context.Context, metric, credential string) (MetricData, error)
}

// DataAPIClient fetches metric data from the internal data API.
type DataAPIClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewDataAPIClient creates a client for the internal data API.
func NewDataAPIClient(baseURL string, logger *slog.Logger) *DataAPIClient {
	return &DataAPIClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		logger:     logger.With("component", "data_api_client"),
	}
}

// FetchMetric issues one GET /api/{metric} with the caller's bearer credential.
func (c *DataAPIClient) FetchMetric(ctx context.Context, metric, credential string) (MetricData, error) {
	if credential == "" {
		return nil, ErrUnauthorized
	}

	url := fmt.Sprintf("%s/api/%s", c.baseURL, metric)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.WarnContext(ctx, "data API returned non-2xx status", "metric", metric, "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("%w: status %d for metric %s", ErrUpstream, resp.StatusCode, metric)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric response: %w", err)
	}
	return MetricData(data), nil
}
