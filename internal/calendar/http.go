package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPService posts events to a webhook-style calendar endpoint
type HTTPService struct {
	baseURL  string
	timezone string
	client   *http.Client
}

// NewHTTPService creates a calendar client for the given endpoint
func NewHTTPService(baseURL, timezone string, timeout time.Duration) *HTTPService {
	if strings.TrimSpace(timezone) == "" {
		timezone = "Europe/Moscow"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPService{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timezone: timezone,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPService) Name() string {
	return "http"
}

// AddEvent inserts one event. The endpoint receives a POST to /events with
// the event JSON in the body.
func (s *HTTPService) AddEvent(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Title) == "" {
		return fmt.Errorf("event title cannot be empty")
	}
	if event.Timezone == "" {
		event.Timezone = s.timezone
	}

	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/events"

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar request failed with status %d", resp.StatusCode)
	}
	return nil
}

// Disabled is used when no calendar endpoint is configured. Every insert
// fails, which the task handler surfaces as a partial add.
type Disabled struct{}

func (Disabled) Name() string {
	return "disabled"
}

func (Disabled) AddEvent(context.Context, Event) error {
	return fmt.Errorf("calendar is not configured")
}
