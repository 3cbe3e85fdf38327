// Package backend talks to the assistant backend that aggregates maps,
// weather, rideshare and AI providers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-assistant/internal/models"
)

// Client performs requests against the backend base URL, for example
// http://localhost:8000/api.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// StatusError is returned for non-2xx responses. Detail holds the backend's
// "detail" field when it sent one.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend status %d", e.StatusCode)
}

// Detail extracts the backend-provided detail text from err, if any.
func Detail(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Detail
	}
	return ""
}

// Autocomplete returns place suggestions for a partial address. Entries may
// be objects with a description or bare strings; both are accepted.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]models.Suggestion, error) {
	params := url.Values{}
	params.Set("input_text", input)
	reqURL := fmt.Sprintf("%s/autocomplete?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build autocomplete request: %w", err)
	}
	var out struct {
		Suggestions []json.RawMessage `json:"suggestions"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}

	suggestions := make([]models.Suggestion, 0, len(out.Suggestions))
	for _, raw := range out.Suggestions {
		s, ok := decodeSuggestion(raw)
		if !ok {
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

func decodeSuggestion(raw json.RawMessage) (models.Suggestion, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return models.Suggestion{Description: text}, true
	}
	var obj struct {
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Suggestion{}, false
	}
	if obj.Description != nil && *obj.Description != "" {
		return models.Suggestion{Description: *obj.Description}, true
	}
	// No usable description: fall back to the raw entry.
	return models.Suggestion{Description: string(raw)}, true
}

// BookRide requests the aggregate ride result for a query.
func (c *Client) BookRide(ctx context.Context, q models.RideQuery) (models.RideResult, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return models.RideResult{}, fmt.Errorf("encode ride query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/book-ride", bytes.NewReader(body))
	if err != nil {
		return models.RideResult{}, fmt.Errorf("build book-ride request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result models.RideResult
	if err := c.do(req, &result); err != nil {
		return models.RideResult{}, fmt.Errorf("book ride: %w", err)
	}
	return result, nil
}

// Health calls the API root and returns the status it reports.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("build health request: %w", err)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("health: %w", err)
	}
	return out.Status, nil
}

func (c *Client) do(req *http.Request, out any) error {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var payload struct {
			Detail json.RawMessage `json:"detail"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &payload) == nil {
			se.Detail = detailText(payload.Detail)
		}
		c.logger.Debug("backend error response", "path", req.URL.Path, "status", resp.StatusCode, "request_id", reqID)
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// detailText accepts a string detail; structured details (for example
// validation error lists) are not shown to the user.
func detailText(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
