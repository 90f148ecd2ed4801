package schedule

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

var (
	ErrUnauthorized = errors.New("schedule: unauthorized")
	ErrUpstream     = errors.New("schedule: upstream error")
)

// Activity is one entry in a user's daily schedule.
type Activity struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Time     time.Time `json:"time"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes,omitempty"`
}

// Source provides a user's schedule. Tests substitute in-memory sources.
type Source interface {
	DailySchedule(ctx context.Context, credential string) ([]Activity, error)
}

// Client fetches the daily schedule from the internal data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a schedule client for the internal data API.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		logger:     logger.With("component", "schedule_client"),
	}
}

type scheduleResponse struct {
	Activities []Activity `json:"activities"`
}

// DailySchedule issues one GET /api/daily-schedule with the caller's bearer
// credential and returns the full unfiltered activity list.
func (c *Client) DailySchedule(ctx context.Context, credential string) ([]Activity, error) {
	if credential == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/daily-schedule", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule request: %w", err)
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
		c.logger.WarnContext(ctx, "schedule API returned non-2xx status", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var decoded scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode schedule response: %w", err)
	}
	return decoded.Activities, nil
}
