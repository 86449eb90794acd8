// Package zippopotam resolves US ZIP codes with the Zippopotam.us postal API.
// The API returns place names and coordinates; the IANA timezone is derived
// from the coordinates with an offline lookup table.
package zippopotam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/latlong"
	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.zippopotam.us"

// SourceName identifies this resolver in results and logs.
const SourceName = "zippopotam"

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZoneFinder maps coordinates to an IANA timezone name, "" when unknown.
type ZoneFinder func(lat, lng float64) string

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another server, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithRateLimit sets the outbound request rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// WithZoneFinder replaces the coordinate to timezone table.
func WithZoneFinder(f ZoneFinder) Option {
	return func(c *Client) {
		c.zoneFinder = f
	}
}

// Client handles Zippopotam.us API operations.
type Client struct {
	httpClient HTTPClient
	logger     *slog.Logger
	limiter    *rate.Limiter
	zoneFinder ZoneFinder
	baseURL    string
	retryDelay time.Duration
	attempts   uint
}

// NewClient creates a new Zippopotam.us API client.
func NewClient(httpClient HTTPClient, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		zoneFinder: latlong.LookupZoneName,
		attempts:   4,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type place struct {
	PlaceName         string `json:"place name"`
	State             string `json:"state"`
	StateAbbreviation string `json:"state abbreviation"`
	Latitude          string `json:"latitude"`
	Longitude         string `json:"longitude"`
}

type response struct {
	PostCode string  `json:"post code"`
	Country  string  `json:"country"`
	Places   []place `json:"places"`
}

// Lookup implements lookup.Resolver.
func (c *Client) Lookup(ctx context.Context, code zipcode.Code) (*lookup.Location, error) {
	apiURL := fmt.Sprintf("%s/us/%s", c.baseURL, code)

	body, status, err := c.get(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, lookup.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("zippopotam returned status %d", status)
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse zippopotam response: %w", err)
	}
	if len(result.Places) == 0 {
		return nil, lookup.ErrNotFound
	}

	p := result.Places[0]
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(p.Latitude), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(p.Longitude), 64)
	if latErr != nil || lngErr != nil {
		c.logger.Debug("zippopotam place has no usable coordinates", "zip", code,
			"latitude", p.Latitude, "longitude", p.Longitude)
		return nil, lookup.ErrNotFound
	}

	zone := c.zoneFinder(lat, lng)
	if zone == "" || strings.Contains(zone, " ") {
		// latlong answers "tables not generated yet" when built without data.
		c.logger.Debug("no timezone for coordinates", "zip", code, "lat", lat, "lng", lng, "zone", zone)
		return nil, lookup.ErrNotFound
	}

	state := p.StateAbbreviation
	if state == "" {
		state = p.State
	}
	return &lookup.Location{
		ZIP:       code,
		City:      p.PlaceName,
		State:     state,
		Timezone:  zone,
		Source:    SourceName,
		Latitude:  lat,
		Longitude: lng,
	}, nil
}

// get fetches apiURL, retrying network errors, rate limiting and server errors.
// Other statuses, including 404, are returned to the caller untouched.
func (c *Client) get(ctx context.Context, apiURL string) ([]byte, int, error) {
	var body []byte
	var status int

	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set("User-Agent", "zipTZ/1.0")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()

			data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			}
			body, status = data, resp.StatusCode
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying zippopotam fetch", "attempt", n+1, "url", apiURL, "error", err)
		}),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s: %w", apiURL, err)
	}
	return body, status, nil
}
