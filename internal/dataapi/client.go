// Package dataapi is a typed HTTP client for the internal data service:
// user identity, preferences, generation records, ratings, link requests
// and status reports. Every call injects the service key header, logs
// method/url/status, and wraps the round trip in an otel span.
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const serviceKeyHeader = "X-Internal-Client-Key"

var tracer = otel.Tracer("forgebot/dataapi")

// Client talks to the internal data API's /internal/v1/data surface.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a Client. timeout of zero falls back to 5 seconds,
// the default per-call budget.
func NewClient(baseURL, serviceKey string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// doJSON marshals body (if non-nil), performs method against path relative
// to the data API base, and decodes the response into out (if non-nil).
// A non-2xx response is returned as *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, span := tracer.Start(ctx, "dataapi."+method+" "+path, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "marshal request")
			return fmt.Errorf("dataapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dataapi: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(serviceKeyHeader, c.serviceKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.log.Warn("dataapi request failed", "method", method, "path", path, "err", err, "duration_ms", dur.Milliseconds())
		return fmt.Errorf("dataapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dataapi: read response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug("dataapi request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", dur.Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dataapi: decode response: %w", err)
	}
	return nil
}
