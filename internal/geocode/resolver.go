package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// BytesCache is an optional shared cache in front of the provider, keyed by
// rounded coordinates. Satisfied by the redis-backed cache in this package;
// nil disables the shared layer and only the session-local map is used.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultMinDelay is the enforced gap between consecutive provider calls.
const DefaultMinDelay = 100 * time.Millisecond

// DefaultCacheTTL bounds how long a shared cache entry for a coordinate
// lives. Country borders do not move, but provider corrections should be
// picked up eventually.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Resolver resolves coordinates to reference-table countries.
//
// Calls to the provider are serialized and spaced at least minDelay apart,
// regardless of how many goroutines ask. Results are memoized per resolver
// (the lifetime of one import session) under coordinates rounded to 0.01°,
// so a burst of photos from the same spot costs one provider call. A shared
// BytesCache, when configured, additionally persists answers across sessions.
type Resolver struct {
	provider Provider
	shared   BytesCache
	ttl      time.Duration
	minDelay time.Duration

	mu       sync.Mutex
	session  map[string]sessionEntry
	lastCall time.Time
}

// sessionEntry memoizes both hits and misses: a coordinate that failed to
// resolve once is not retried within the same session.
type sessionEntry struct {
	country domain.Country
	ok      bool
}

// NewResolver constructs a Resolver. shared may be nil.
func NewResolver(provider Provider, shared BytesCache) *Resolver {
	return &Resolver{
		provider: provider,
		shared:   shared,
		ttl:      DefaultCacheTTL,
		minDelay: DefaultMinDelay,
		session:  make(map[string]sessionEntry),
	}
}

// WithMinDelay overrides the inter-call delay. Zero disables throttling
// (tests only).
func (r *Resolver) WithMinDelay(d time.Duration) *Resolver {
	r.minDelay = d
	return r
}

// ResolveCoordinates resolves lat/lng to a country from the reference table.
//
// ok is false when the coordinate cannot be resolved — provider failure,
// empty result, or a country outside the reference table. Failures are
// logged and absorbed here: one bad signal never aborts a scan.
func (r *Resolver) ResolveCoordinates(ctx context.Context, lat, lng float64) (domain.Country, bool) {
	key := coordKey(lat, lng)

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, hit := r.session[key]; hit {
		return entry.country, entry.ok
	}

	if c, hit := r.sharedGet(ctx, key); hit {
		r.session[key] = sessionEntry{country: c, ok: true}
		return c, true
	}

	place, err := r.lookupLocked(ctx, lat, lng)
	if err != nil {
		slog.Debug("reverse geocode failed, dropping signal", "lat", lat, "lng", lng, "error", err)
		// Only cache the miss for this session; a transient provider outage
		// should not poison the shared cache.
		r.session[key] = sessionEntry{}
		return domain.Country{}, false
	}

	country, known := domain.CountryByCode(place.CountryCode)
	if !known {
		slog.Debug("geocoded country not in reference table", "code", place.CountryCode)
		r.session[key] = sessionEntry{}
		return domain.Country{}, false
	}

	r.session[key] = sessionEntry{country: country, ok: true}
	r.sharedSet(ctx, key, country)
	return country, true
}

// lookupLocked calls the provider, honoring the minimum inter-call delay.
// Caller must hold r.mu — that is what serializes provider traffic.
func (r *Resolver) lookupLocked(ctx context.Context, lat, lng float64) (Place, error) {
	if wait := r.minDelay - time.Since(r.lastCall); wait > 0 {
		select {
		case <-ctx.Done():
			return Place{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	r.lastCall = time.Now()
	return r.provider.ReverseGeocode(ctx, lat, lng)
}

func (r *Resolver) sharedGet(ctx context.Context, key string) (domain.Country, bool) {
	if r.shared == nil {
		return domain.Country{}, false
	}
	b, ok, err := r.shared.Get(ctx, key)
	if err != nil || !ok {
		return domain.Country{}, false
	}
	var place Place
	if json.Unmarshal(b, &place) != nil {
		return domain.Country{}, false
	}
	c, known := domain.CountryByCode(place.CountryCode)
	return c, known
}

func (r *Resolver) sharedSet(ctx context.Context, key string, c domain.Country) {
	if r.shared == nil {
		return
	}
	b, _ := json.Marshal(Place{CountryCode: c.Code, CountryName: c.Name})
	if err := r.shared.Set(ctx, key, b, r.ttl); err != nil {
		slog.Debug("geocode cache write failed", "error", err)
	}
}

// coordKey rounds to 0.01° (~1 km at the equator), coarse enough that a
// day's photos from one city collapse to a handful of lookups but fine
// enough to stay on the right side of most borders.
func coordKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.2f:%.2f", round2(lat), round2(lng))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
