// Package fake provides a deterministic reverse-geocoding provider for tests
// and local development, resolving coordinates against a short list of
// bounding boxes instead of a network service.
package fake

import (
	"context"

	"github.com/mhartwig/schengen-keeper/internal/geocode"
)

// box is a rough lat/lng bounding box for one country. Boxes overlap in
// reality; the first match wins, so order them from specific to broad.
type box struct {
	minLat, maxLat float64
	minLng, maxLng float64
	code, name     string
}

var boxes = []box{
	{50.7, 53.6, 3.3, 7.3, "NL", "Netherlands"},
	{45.8, 47.9, 5.9, 10.5, "CH", "Switzerland"},
	{47.2, 55.1, 5.8, 15.1, "DE", "Germany"},
	{42.3, 51.2, -5.2, 8.3, "FR", "France"},
	{36.0, 43.8, -9.5, 3.4, "ES", "Spain"},
	{36.6, 47.1, 6.6, 18.6, "IT", "Italy"},
	{49.9, 59.4, -8.7, 1.8, "GB", "United Kingdom"},
	{36.0, 42.2, 26.0, 45.0, "TR", "Turkey"},
	{24.3, 49.4, -125.0, -66.9, "US", "United States"},
}

// Provider resolves coordinates against the bounding boxes above.
// Anything outside every box returns geocode.ErrNoResult. Calls is
// incremented on every lookup so tests can assert cache behavior.
type Provider struct {
	Calls int
}

func New() *Provider { return &Provider{} }

func (p *Provider) ReverseGeocode(_ context.Context, lat, lng float64) (geocode.Place, error) {
	p.Calls++
	for _, b := range boxes {
		if lat >= b.minLat && lat <= b.maxLat && lng >= b.minLng && lng <= b.maxLng {
			return geocode.Place{CountryCode: b.code, CountryName: b.name}, nil
		}
	}
	return geocode.Place{}, geocode.ErrNoResult
}
