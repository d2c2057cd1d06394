// Package twc talks to the weather service that geocodes postal codes and
// serves active weather alerts by coordinate.
package twc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
)

const (
	methodGeocode = "geocode"
	methodAlerts  = "alerts"

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 4 << 20
)

// Config identifies the weather service endpoint and credentials.
type Config struct {
	BaseURL  string
	Country  string
	Language string

	// Token, when set, is sent as a bearer credential. Otherwise Username and
	// Password are sent as HTTP basic credentials when both are set.
	Token    string
	Username string
	Password string

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker. Zero disables it.
	BreakerFailures int
}

// Client implements domain.Geocoder and domain.AlertFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string
	language   string
	authHeader string
	breaker    *gobreaker.CircuitBreaker[rawResponse]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a weather service client on the shared httpClient.
func NewClient(httpClient *http.Client, cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		country:    cfg.Country,
		language:   cfg.Language,
		authHeader: authorization(cfg),
		breaker:    newBreaker(cfg.BreakerFailures, metrics, logger),
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve converts a zip code to coordinates. Every failure wraps
// domain.ErrExternalService.
func (c *Client) Resolve(ctx context.Context, zip string) (domain.Coordinate, error) {
	params := url.Values{
		"postalKey": {zip + ":" + c.country},
		"language":  {c.language},
	}
	u := c.baseURL + "/v3/location/point?" + params.Encode()

	raw, err := c.call(ctx, methodGeocode, u)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: geocode %s: %w", domain.ErrExternalService, zip, err)
	}
	if raw.status < 200 || raw.status >= 300 {
		return domain.Coordinate{}, fmt.Errorf("%w: geocode %s: status %d: %s",
			domain.ErrExternalService, zip, raw.status, snippet(raw.body))
	}

	var resp pointResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: geocode %s: decode response: %w", domain.ErrExternalService, zip, err)
	}
	if resp.Location == nil || resp.Location.Latitude == "" || resp.Location.Longitude == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: geocode %s: response has no location coordinates", domain.ErrExternalService, zip)
	}

	return domain.Coordinate{
		Latitude:  resp.Location.Latitude.String(),
		Longitude: resp.Location.Longitude.String(),
	}, nil
}

// FetchAlerts returns the active alerts for a coordinate. The status code
// comes from the response metadata; only transport and decode failures are
// errors.
func (c *Client) FetchAlerts(ctx context.Context, latitude, longitude string) (domain.AlertResponse, error) {
	u := fmt.Sprintf("%s/v1/geocode/%s/%s/alerts.json?%s",
		c.baseURL, url.PathEscape(latitude), url.PathEscape(longitude),
		url.Values{"language": {c.language}}.Encode())

	raw, err := c.call(ctx, methodAlerts, u)
	if err != nil {
		return domain.AlertResponse{}, fmt.Errorf("%w: alerts %s,%s: %w", domain.ErrExternalService, latitude, longitude, err)
	}

	if len(bytes.TrimSpace(raw.body)) == 0 {
		if raw.status == http.StatusNoContent {
			return domain.AlertResponse{StatusCode: http.StatusNoContent}, nil
		}
		return domain.AlertResponse{}, fmt.Errorf("%w: alerts %s,%s: empty response with status %d",
			domain.ErrExternalService, latitude, longitude, raw.status)
	}

	var resp alertsResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return domain.AlertResponse{}, fmt.Errorf("%w: alerts %s,%s: decode response: %w",
			domain.ErrExternalService, latitude, longitude, err)
	}

	status := raw.status
	switch {
	case resp.Metadata != nil && resp.Metadata.StatusCode != 0:
		status = resp.Metadata.StatusCode
	case raw.status < 200 || raw.status >= 300:
		return domain.AlertResponse{}, fmt.Errorf("%w: alerts %s,%s: status %d: %s",
			domain.ErrExternalService, latitude, longitude, raw.status, snippet(raw.body))
	}

	return domain.AlertResponse{StatusCode: status, Alerts: resp.Alerts}, nil
}

// call performs one GET through the circuit breaker. Transport errors and
// 5xx responses count as breaker failures; everything else is returned to
// the caller to interpret.
func (c *Client) call(ctx context.Context, method, fullURL string) (rawResponse, error) {
	start := time.Now()
	raw, err := c.execute(func() (rawResponse, error) {
		return c.do(ctx, fullURL)
	})
	c.metrics.WeatherAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil || raw.status >= 300 {
		outcome = "error"
	}
	c.metrics.WeatherRequests.WithLabelValues(method, outcome).Inc()

	if err != nil {
		c.logger.Debug("weather service call failed", "method", method, "error", err)
	}
	return raw, err
}

func (c *Client) execute(fn func() (rawResponse, error)) (rawResponse, error) {
	if c.breaker == nil {
		return fn()
	}
	raw, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return rawResponse{}, fmt.Errorf("circuit breaker open: %w", err)
	}
	return raw, err
}

func (c *Client) do(ctx context.Context, fullURL string) (rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return rawResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rawResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rawResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return rawResponse{}, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body))
	}
	return rawResponse{status: resp.StatusCode, body: body}, nil
}

func authorization(cfg Config) string {
	switch {
	case cfg.Token != "":
		return "Bearer " + cfg.Token
	case cfg.Username != "" && cfg.Password != "":
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password))
	default:
		return ""
	}
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Weather service response types.

type pointResponse struct {
	Location *struct {
		Latitude  json.Number `json:"latitude"`
		Longitude json.Number `json:"longitude"`
	} `json:"location"`
}

type alertsResponse struct {
	Metadata *struct {
		StatusCode int `json:"status_code"`
	} `json:"metadata"`
	Alerts []domain.Alert `json:"alerts"`
}
