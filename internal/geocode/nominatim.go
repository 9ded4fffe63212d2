package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// NominatimClient reverse-geocodes against a Nominatim-compatible HTTP
// endpoint (the OSM public instance or a self-hosted one).
//
// Transient failures (5xx, network errors) are retried with exponential
// backoff a small, bounded number of times; a definitive empty answer is
// returned as ErrNoResult and never retried.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewNominatimClient constructs a client for the given base URL,
// e.g. "https://nominatim.openstreetmap.org". The user agent is required by
// the public instance's usage policy.
func NewNominatimClient(baseURL, userAgent string) *NominatimClient {
	return &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// nominatimResponse is the subset of the /reverse JSON payload we read.
type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		CountryCode string `json:"country_code"`
		Country     string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode implements Provider.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lng))
	q.Set("zoom", "3") // country-level detail is all we need
	reqURL := c.baseURL + "/reverse?" + q.Encode()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	var place Place
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("geocode: provider returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("geocode: provider returned %d", resp.StatusCode)
		}

		var body nominatimResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("geocode: decode response: %w", err)
		}
		if body.Error != "" || body.Address.CountryCode == "" {
			return ErrNoResult
		}
		place = Place{
			CountryCode: strings.ToUpper(body.Address.CountryCode),
			CountryName: body.Address.Country,
		}
		return nil
	})
	if err != nil {
		return Place{}, err
	}
	return place, nil
}
