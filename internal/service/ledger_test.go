package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/repo"
	"github.com/mhartwig/schengen-keeper/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field — set only the ones your test needs.
type mockTripRepo struct {
	create          func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID         func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list            func(ctx context.Context, filter repo.TripFilter) ([]domain.Trip, error)
	update          func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete          func(ctx context.Context, id uuid.UUID) error
	findBySourceRef func(ctx context.Context, source domain.Source, ref string) (domain.Trip, error)
	findOverlapping func(ctx context.Context, countryCode string, start, end time.Time) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) List(ctx context.Context, filter repo.TripFilter) ([]domain.Trip, error) {
	return m.list(ctx, filter)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripRepo) FindBySourceRef(ctx context.Context, source domain.Source, ref string) (domain.Trip, error) {
	return m.findBySourceRef(ctx, source, ref)
}
func (m *mockTripRepo) FindOverlapping(ctx context.Context, countryCode string, start, end time.Time) ([]domain.Trip, error) {
	return m.findOverlapping(ctx, countryCode, start, end)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func validTrip() domain.Trip {
	start := day(2025, 6, 1)
	end := day(2025, 6, 15)
	return domain.Trip{
		StartDate:   start,
		EndDate:     &end,
		CountryCode: "FR",
	}
}

func echoRepo() *mockTripRepo {
	// A repo that echoes whatever it receives back — useful for Create/Update
	// tests that only care about validation logic, not what the DB returns.
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		update: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
	}
}

func importedTrip(ref string) domain.Trip {
	t := validTrip()
	t.Source = domain.SourceCalendarImport
	t.SourceRef = &ref
	return t
}

// ---- Create tests ----------------------------------------------------------

func TestLedgerService_Create_Valid(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	got, err := svc.Create(context.Background(), validTrip())

	require.NoError(t, err)
	assert.Equal(t, "FR", got.CountryCode)
	assert.Equal(t, domain.CategorySchengen, got.Category, "category derived from country")
	assert.Equal(t, domain.SourceManual, got.Source, "manual is the default source")
	assert.Equal(t, domain.SyncPending, got.SyncStatus)
}

func TestLedgerService_Create_DerivesNonSchengenCategory(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.CountryCode = "gb" // lower case is normalized too

	got, err := svc.Create(context.Background(), trip)

	require.NoError(t, err)
	assert.Equal(t, "GB", got.CountryCode)
	assert.Equal(t, domain.CategoryNonSchengen, got.Category)
}

func TestLedgerService_Create_UnknownCountry(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.CountryCode = "XX"

	_, err := svc.Create(context.Background(), trip)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_Create_EndDateBeforeStartDate(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	bad := trip.StartDate.AddDate(0, 0, -1)
	trip.EndDate = &bad

	_, err := svc.Create(context.Background(), trip)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_Create_SameDayTrip(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	same := trip.StartDate
	trip.EndDate = &same

	_, err := svc.Create(context.Background(), trip)

	// A one-day trip is valid and counts as one day of presence.
	assert.NoError(t, err)
}

func TestLedgerService_Create_NilEndDate(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.EndDate = nil // ongoing

	got, err := svc.Create(context.Background(), trip)

	require.NoError(t, err)
	assert.Nil(t, got.EndDate)
}

func TestLedgerService_Create_TruncatesTimestamps(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.StartDate = time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	got, err := svc.Create(context.Background(), trip)

	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(day(2025, 6, 1)), "time of day should be stripped")
}

// ---- Update tests ----------------------------------------------------------

func TestLedgerService_Update_Valid(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.ID = uuid.New()
	trip.Notes = "changed"

	got, err := svc.Update(context.Background(), trip)

	require.NoError(t, err)
	assert.Equal(t, "changed", got.Notes)
}

func TestLedgerService_Update_Invalid(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.CountryCode = ""

	_, err := svc.Update(context.Background(), trip)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- CommitImported tests --------------------------------------------------

func TestLedgerService_CommitImported_Inserts(t *testing.T) {
	var created *domain.Trip
	repoMock := &mockTripRepo{
		findBySourceRef: func(_ context.Context, _ domain.Source, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
		findOverlapping: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Trip, error) {
			return nil, nil
		},
		create: func(_ context.Context, tr domain.Trip) (domain.Trip, error) {
			created = &tr
			return tr, nil
		},
	}
	svc := service.NewLedgerService(repoMock)

	got, reason, err := svc.CommitImported(context.Background(), importedTrip("event-1"))

	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.Equal(t, "FR", got.CountryCode)
	require.NotNil(t, created, "repo.Create should have been called")
}

func TestLedgerService_CommitImported_SkipsDuplicateSourceRef(t *testing.T) {
	repoMock := &mockTripRepo{
		findBySourceRef: func(_ context.Context, source domain.Source, ref string) (domain.Trip, error) {
			assert.Equal(t, domain.SourceCalendarImport, source)
			assert.Equal(t, "event-1", ref)
			return domain.Trip{ID: uuid.New()}, nil // already imported
		},
	}
	svc := service.NewLedgerService(repoMock)

	_, reason, err := svc.CommitImported(context.Background(), importedTrip("event-1"))

	require.NoError(t, err)
	assert.Equal(t, "duplicate", reason)
}

func TestLedgerService_CommitImported_SkipsCrossSourceOverlap(t *testing.T) {
	repoMock := &mockTripRepo{
		findBySourceRef: func(_ context.Context, _ domain.Source, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
		findOverlapping: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Trip, error) {
			// A manually entered trip already covers these dates: it wins.
			return []domain.Trip{{Source: domain.SourceManual}}, nil
		},
	}
	svc := service.NewLedgerService(repoMock)

	_, reason, err := svc.CommitImported(context.Background(), importedTrip("event-1"))

	require.NoError(t, err)
	assert.Equal(t, "overlaps existing trip", reason)
}

func TestLedgerService_CommitImported_SameSourceOverlapInserts(t *testing.T) {
	// Two distinct calendar events in the same country may legitimately
	// overlap; only cross-source overlap is deferred to the existing record.
	repoMock := &mockTripRepo{
		findBySourceRef: func(_ context.Context, _ domain.Source, _ string) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
		findOverlapping: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Trip, error) {
			return []domain.Trip{{Source: domain.SourceCalendarImport}}, nil
		},
		create: func(_ context.Context, tr domain.Trip) (domain.Trip, error) { return tr, nil },
	}
	svc := service.NewLedgerService(repoMock)

	_, reason, err := svc.CommitImported(context.Background(), importedTrip("event-2"))

	require.NoError(t, err)
	assert.Empty(t, reason)
}

func TestLedgerService_CommitImported_RequiresSourceRef(t *testing.T) {
	svc := service.NewLedgerService(echoRepo())

	trip := validTrip()
	trip.Source = domain.SourceCalendarImport // no SourceRef set

	_, _, err := svc.CommitImported(context.Background(), trip)

	assert.ErrorIs(t, err, domain.ErrValidation)
}
