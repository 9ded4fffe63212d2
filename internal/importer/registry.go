package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mhartwig/schengen-keeper/internal/assemble"
	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/geocode"
)

// Registry creates and tracks import sessions, enforcing the one-active-
// session rule: a new scan cannot start while another session is scanning,
// reviewing, or committing. Finished sessions stay retrievable so the
// client can fetch a commit result it missed.
type Registry struct {
	base     context.Context
	calendar collect.Collector
	photo    collect.Collector
	resolver *geocode.Resolver
	ledger   Ledger
	cfg      assemble.Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	active   *Session
}

// NewRegistry constructs a Registry over the two scan variants. Scans run on
// goroutines bound to base, the server's lifetime context — never to the
// request that started them, which the HTTP server cancels as soon as the
// 202 is written.
func NewRegistry(base context.Context, calendar, photo collect.Collector, resolver *geocode.Resolver, ledger Ledger, cfg assemble.Config) *Registry {
	if base == nil {
		base = context.Background()
	}
	return &Registry{
		base:     base,
		calendar: calendar,
		photo:    photo,
		resolver: resolver,
		ledger:   ledger,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Start creates a session for the given source and launches its scan.
// ctx governs only this call; the scan itself outlives it (cancel via the
// session's Cancel). Returns domain.ErrSessionState while another session is
// still active, and domain.ErrValidation for an unknown source or an
// inverted date range.
func (g *Registry) Start(ctx context.Context, source domain.Source, r collect.DateRange) (*Session, error) {
	var collector collect.Collector
	switch source {
	case domain.SourceCalendarImport:
		collector = g.calendar
	case domain.SourcePhotoImport:
		collector = g.photo
	default:
		return nil, fmt.Errorf("importer.Registry.Start: %w: unknown import source %q", domain.ErrValidation, source)
	}
	if r.End.Before(r.Start) {
		return nil, fmt.Errorf("importer.Registry.Start: %w: end_date before start_date", domain.ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil && g.active.InFlight() {
		return nil, fmt.Errorf("importer.Registry.Start: %w: another import session is active", domain.ErrSessionState)
	}

	s := NewSession(collector, g.resolver, g.ledger, g.cfg, r)
	if err := s.Start(g.base); err != nil {
		return nil, err
	}
	g.sessions[s.ID] = s
	g.active = s
	return s, nil
}

// Get returns a session by ID, or domain.ErrNotFound.
func (g *Registry) Get(id uuid.UUID) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("importer.Registry.Get: %w", domain.ErrNotFound)
	}
	return s, nil
}

// InFlight reports whether the session still holds the single active slot.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateScanning, StateReviewing, StateCommitting:
		return true
	default:
		return false
	}
}
