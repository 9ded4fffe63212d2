// Package geocode resolves GPS coordinates to countries through a
// reverse-geocoding provider, with caching and rate limiting in front so a
// photo import never hammers the provider with near-duplicate lookups.
package geocode

import (
	"context"
	"errors"
)

// Place is the provider's answer for a coordinate.
type Place struct {
	CountryCode string `json:"country_code"` // ISO-3166 alpha-2, upper case
	CountryName string `json:"country_name"`
}

// ErrNoResult is returned by a Provider when the coordinate resolves to no
// country (open ocean, provider gap). Callers treat it as "drop the signal",
// not as a failure.
var ErrNoResult = errors.New("no geocoding result")

// Provider is the port to an external reverse-geocoding service.
type Provider interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error)
}
