// Package repo contains all database access logic for the Schengen Keeper API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripFilter narrows List results. The zero value matches every trip.
type TripFilter struct {
	// Category, when set, keeps only trips of that category.
	Category *domain.Category
}

// TripRepo defines the persistence operations for the trip ledger.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows services to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// List returns trips matching the filter, ordered by start_date ascending
	// (chronological, oldest first).
	List(ctx context.Context, filter TripFilter) ([]domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns
	// the updated record. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindBySourceRef returns the trip imported with the given (source,
	// source_ref) pair, or domain.ErrNotFound. Used for idempotent imports.
	FindBySourceRef(ctx context.Context, source domain.Source, ref string) (domain.Trip, error)

	// FindOverlapping returns trips in the same country whose date span
	// intersects [start, end]. Ongoing trips (NULL end_date) overlap
	// anything ending on or after their start date.
	FindOverlapping(ctx context.Context, countryCode string, start, end time.Time) ([]domain.Trip, error)
}

// tripColumns is the canonical SELECT column list, shared by every query so
// scanTrip stays in sync with a single definition.
const tripColumns = `id, start_date, end_date, country_code, category, source, source_ref, notes, sync_status, created_at, updated_at`

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (start_date, end_date, country_code, category, source, source_ref, notes, sync_status)
		VALUES (@start_date, @end_date, @country_code, @category, @source, @source_ref, @notes, @sync_status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"start_date":   trip.StartDate,
		"end_date":     trip.EndDate, // nil becomes NULL
		"country_code": trip.CountryCode,
		"category":     string(trip.Category),
		"source":       string(trip.Source),
		"source_ref":   trip.SourceRef,
		"notes":        trip.Notes,
		"sync_status":  string(trip.SyncStatus),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns trips matching the filter in chronological order.
func (r *pgTripRepo) List(ctx context.Context, filter TripFilter) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips`
	args := pgx.NamedArgs{}
	if filter.Category != nil {
		q += ` WHERE category = @category`
		args["category"] = string(*filter.Category)
	}
	q += ` ORDER BY start_date ASC, created_at ASC`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	return trips, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET start_date   = @start_date,
		    end_date     = @end_date,
		    country_code = @country_code,
		    category     = @category,
		    notes        = @notes,
		    sync_status  = @sync_status,
		    updated_at   = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":           trip.ID,
		"start_date":   trip.StartDate,
		"end_date":     trip.EndDate,
		"country_code": trip.CountryCode,
		"category":     string(trip.Category),
		"notes":        trip.Notes,
		"sync_status":  string(trip.SyncStatus),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// FindBySourceRef looks up an imported trip by its dedup key.
func (r *pgTripRepo) FindBySourceRef(ctx context.Context, source domain.Source, ref string) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE source = @source AND source_ref = @source_ref`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"source": string(source), "source_ref": ref})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.FindBySourceRef: %w", err)
	}
	return result, nil
}

// FindOverlapping returns same-country trips intersecting [start, end].
// A NULL end_date means the trip is ongoing and extends indefinitely.
func (r *pgTripRepo) FindOverlapping(ctx context.Context, countryCode string, start, end time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE country_code = @country_code
		  AND start_date <= @end
		  AND (end_date IS NULL OR end_date >= @start)
		ORDER BY start_date ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"country_code": countryCode, "start": start, "end": end})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindOverlapping: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindOverlapping: %w", err)
	}
	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// collectTrips drains rows into a slice using scanTrip.
func collectTrips(rows pgx.Rows) ([]domain.Trip, error) {
	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, nullable end_date, and nullable source_ref conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
		category  string
		source    string
		sourceRef pgtype.Text
		status    string
	)

	err := s.Scan(&id, &startDate, &endDate, &t.CountryCode, &category, &source, &sourceRef, &t.Notes, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = startDate.Time
	if endDate.Valid {
		ed := endDate.Time
		t.EndDate = &ed
	}
	t.Category = domain.Category(category)
	t.Source = domain.Source(source)
	if sourceRef.Valid {
		ref := sourceRef.String
		t.SourceRef = &ref
	}
	t.SyncStatus = domain.SyncStatus(status)

	return t, nil
}
