// Package service contains the business logic for the Schengen Keeper API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/repo"
)

// LedgerService implements business logic for the trip ledger.
//
// All writes — manual edits and import commits alike — go through this
// service and are serialized by a single mutex. That is the single-writer
// discipline that prevents a concurrent manual edit and import commit from
// racing each other into duplicate rows. Contention is inherently low (one
// user, at most one active import session), so a mutex is enough; reads are
// not serialized at all.
type LedgerService struct {
	repo repo.TripRepo

	writeMu sync.Mutex
}

// NewLedgerService constructs a LedgerService backed by the provided TripRepo.
func NewLedgerService(r repo.TripRepo) *LedgerService {
	return &LedgerService{repo: r}
}

// Create validates and persists a new trip.
// Returns domain.ErrValidation for rule violations; malformed trips are
// rejected here, at the write boundary, never silently corrected.
func (s *LedgerService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip = normalizeTrip(trip)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.LedgerService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
func (s *LedgerService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.LedgerService.GetByID: %w", err)
	}
	return result, nil
}

// List returns trips in chronological order, optionally filtered by category.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LedgerService) List(ctx context.Context, category *domain.Category) ([]domain.Trip, error) {
	trips, err := s.repo.List(ctx, repo.TripFilter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.List: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// Update validates and persists changes to an existing trip.
// Source and SourceRef are immutable; the repo never updates them.
func (s *LedgerService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip = normalizeTrip(trip)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.LedgerService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by ID.
func (s *LedgerService) Delete(ctx context.Context, id uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.LedgerService.Delete: %w", err)
	}
	return nil
}

// CommitImported inserts a trip produced by an import commit, applying the
// idempotency rules inside the write lock so a re-run cannot race its own
// duplicate check:
//
//  1. A trip with the same (source, source_ref) already exists -> skipped.
//  2. A trip from any other source already overlaps the same country and
//     date range -> skipped; the existing record wins.
//  3. Otherwise the trip is inserted.
//
// The skip reason is returned alongside so the caller can report a three-way
// inserted/skipped/failed partition.
func (s *LedgerService) CommitImported(ctx context.Context, trip domain.Trip) (domain.Trip, string, error) {
	trip = normalizeTrip(trip)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, "", err
	}
	if trip.SourceRef == nil || *trip.SourceRef == "" {
		return domain.Trip{}, "", fmt.Errorf("%w: imported trip requires a source_ref", domain.ErrValidation)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.repo.FindBySourceRef(ctx, trip.Source, *trip.SourceRef); err == nil {
		return domain.Trip{}, "duplicate", nil
	} else if !isNotFound(err) {
		return domain.Trip{}, "", fmt.Errorf("service.LedgerService.CommitImported: %w", err)
	}

	end := trip.EndOrOngoing(trip.StartDate)
	overlapping, err := s.repo.FindOverlapping(ctx, trip.CountryCode, trip.StartDate, end)
	if err != nil {
		return domain.Trip{}, "", fmt.Errorf("service.LedgerService.CommitImported: %w", err)
	}
	for _, existing := range overlapping {
		if existing.Source != trip.Source {
			return domain.Trip{}, "overlaps existing trip", nil
		}
	}

	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, "", fmt.Errorf("service.LedgerService.CommitImported: %w", err)
	}
	return result, "", nil
}

// isNotFound unwraps repo errors down to the domain sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// normalizeTrip canonicalizes fields the caller may have left loose: dates
// are truncated to calendar days, the country code is upper-cased, and an
// empty category is derived from the reference table.
func normalizeTrip(trip domain.Trip) domain.Trip {
	trip.StartDate = domain.DateOf(trip.StartDate)
	if trip.EndDate != nil {
		ed := domain.DateOf(*trip.EndDate)
		trip.EndDate = &ed
	}
	trip.CountryCode = strings.ToUpper(strings.TrimSpace(trip.CountryCode))
	if trip.Category == "" {
		if domain.IsSchengen(trip.CountryCode) {
			trip.Category = domain.CategorySchengen
		} else {
			trip.Category = domain.CategoryNonSchengen
		}
	}
	if trip.Source == "" {
		trip.Source = domain.SourceManual
	}
	if trip.SyncStatus == "" {
		trip.SyncStatus = domain.SyncPending
	}
	return trip
}

// validateTrip enforces the write-boundary rules common to Create, Update,
// and CommitImported.
func validateTrip(trip domain.Trip) error {
	if trip.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", domain.ErrValidation)
	}
	if trip.EndDate != nil && trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if _, ok := domain.CountryByCode(trip.CountryCode); !ok {
		return fmt.Errorf("%w: unknown country code %q", domain.ErrValidation, trip.CountryCode)
	}
	switch trip.Category {
	case domain.CategorySchengen, domain.CategoryNonSchengen:
	default:
		return fmt.Errorf("%w: invalid category %q", domain.ErrValidation, trip.Category)
	}
	switch trip.Source {
	case domain.SourceManual, domain.SourceCalendarImport, domain.SourcePhotoImport:
	default:
		return fmt.Errorf("%w: invalid source %q", domain.ErrValidation, trip.Source)
	}
	switch trip.SyncStatus {
	case domain.SyncPending, domain.SyncSynced, domain.SyncFailed:
	default:
		return fmt.Errorf("%w: invalid sync_status %q", domain.ErrValidation, trip.SyncStatus)
	}
	return nil
}
