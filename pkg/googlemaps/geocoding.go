// Package googlemaps resolves ZIP codes with the Google Geocoding and Time Zone APIs.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// DefaultBaseURL is the Maps API host.
const DefaultBaseURL = "https://maps.googleapis.com"

// SourceName identifies this resolver in results and logs.
const SourceName = "googlemaps"

// ErrNoAPIKey is returned when the client has no key configured.
var ErrNoAPIKey = errors.New("google Maps API key not configured")

// Place is a geocoded ZIP code.
type Place struct {
	City      string
	State     string
	Latitude  float64
	Longitude float64
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client handles Google Maps API operations.
type Client struct {
	httpClient HTTPClient
	logger     *slog.Logger
	now        func() time.Time
	apiKey     string
	baseURL    string
}

// NewClient creates a new Google Maps API client.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    DefaultBaseURL,
		now:        time.Now,
	}
}

// SetBaseURL overrides the API host.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func (a addressComponent) has(kind string) bool {
	for _, t := range a.Types {
		if t == kind {
			return true
		}
	}
	return false
}

// Lookup implements lookup.Resolver.
func (c *Client) Lookup(ctx context.Context, code zipcode.Code) (*lookup.Location, error) {
	place, err := c.GeocodeZIP(ctx, code)
	if err != nil {
		return nil, err
	}
	zone, err := c.TimezoneForCoordinates(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return nil, err
	}
	return &lookup.Location{
		ZIP:       code,
		City:      place.City,
		State:     place.State,
		Timezone:  zone,
		Source:    SourceName,
		Latitude:  place.Latitude,
		Longitude: place.Longitude,
	}, nil
}

// GeocodeZIP converts a US ZIP code to a city, state and coordinates.
func (c *Client) GeocodeZIP(ctx context.Context, code zipcode.Code) (*Place, error) {
	if c.apiKey == "" {
		c.logger.Warn("Google Maps API key not configured - skipping geocoding", "zip", code)
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("components", "postal_code:"+code.String()+"|country:US")
	q.Set("key", c.apiKey)
	apiURL := c.baseURL + "/maps/api/geocode/json?" + q.Encode()

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			AddressComponents []addressComponent `json:"address_components"`
			FormattedAddress  string             `json:"formatted_address"`
		} `json:"results"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := c.getJSON(ctx, apiURL, &result); err != nil {
		return nil, err
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, lookup.ErrNotFound
	default:
		c.logger.Debug("geocoding failed", "zip", code, "status", result.Status, "results_count", len(result.Results))
		if result.ErrorMessage != "" {
			return nil, fmt.Errorf("geocoding failed for %s: %s: %s", code, result.Status, result.ErrorMessage)
		}
		return nil, fmt.Errorf("geocoding failed for %s: %s", code, result.Status)
	}
	if len(result.Results) == 0 {
		return nil, lookup.ErrNotFound
	}

	first := result.Results[0]
	place := &Place{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
	}
	for _, kind := range []string{"locality", "postal_town", "sublocality", "neighborhood"} {
		for _, comp := range first.AddressComponents {
			if place.City == "" && comp.has(kind) {
				place.City = comp.LongName
			}
		}
	}
	for _, comp := range first.AddressComponents {
		if comp.has("administrative_area_level_1") {
			place.State = comp.ShortName
			break
		}
	}
	c.logger.Debug("geocoded zip", "zip", code, "address", first.FormattedAddress,
		"city", place.City, "state", place.State)
	return place, nil
}

// TimezoneForCoordinates gets the timezone for given coordinates using Google Timezone API.
func (c *Client) TimezoneForCoordinates(ctx context.Context, lat, lng float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	q.Set("key", c.apiKey)
	apiURL := c.baseURL + "/maps/api/timezone/json?" + q.Encode()

	var result struct {
		TimeZoneID   string `json:"timeZoneId"`
		TimeZoneName string `json:"timeZoneName"`
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := c.getJSON(ctx, apiURL, &result); err != nil {
		return "", err
	}

	switch result.Status {
	case "OK":
		return result.TimeZoneID, nil
	case "ZERO_RESULTS":
		return "", lookup.ErrNotFound
	}
	if result.ErrorMessage != "" {
		return "", fmt.Errorf("timezone API failed: %s", result.ErrorMessage)
	}
	return "", fmt.Errorf("timezone API failed with status: %s", result.Status)
}

// getJSON fetches apiURL with retries and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, apiURL string, v any) error {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying Google Maps request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("google Maps request failed: %w", err)
	}

	bodyPreviewLen := min(len(body), 200)
	c.logger.Debug("Google Maps raw response", "body_preview", string(body[:bodyPreviewLen]))

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse Google Maps response: %w", err)
	}
	return nil
}
