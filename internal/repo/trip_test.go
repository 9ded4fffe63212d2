package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/repo"
	"github.com/mhartwig/schengen-keeper/testutil"
)

// newTestRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test — no cleanup SQL needed.
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx)
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return domain.Trip{
		StartDate:   start,
		EndDate:     &end,
		CountryCode: "FR",
		Category:    domain.CategorySchengen,
		Source:      domain.SourceManual,
		Notes:       "Test notes",
		SyncStatus:  domain.SyncSynced,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, input.CountryCode, got.CountryCode)
	assert.Equal(t, input.Category, got.Category)
	assert.Equal(t, input.Source, got.Source)
	assert.True(t, got.StartDate.Equal(input.StartDate), "StartDate mismatch")
	require.NotNil(t, got.EndDate, "EndDate should not be nil")
	assert.True(t, got.EndDate.Equal(*input.EndDate), "EndDate mismatch")
	assert.Equal(t, input.Notes, got.Notes)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
	assert.False(t, got.UpdatedAt.IsZero(), "UpdatedAt should be set by DB")
}

func TestTripRepo_Create_NilEndDate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.EndDate = nil // trip still in progress

	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.EndDate, "EndDate should be nil when not provided")
}

func TestTripRepo_Create_DuplicateSourceRef(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	ref := "event-123"
	input := tripFixture()
	input.Source = domain.SourceCalendarImport
	input.SourceRef = &ref

	_, err := r.Create(ctx, input)
	require.NoError(t, err)

	// Same (source, source_ref) pair violates the partial unique index.
	_, err = r.Create(ctx, input)
	assert.Error(t, err, "duplicate (source, source_ref) must be rejected by the DB")
}

func TestTripRepo_GetByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CountryCode, got.CountryCode)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetByID(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_List_CategoryFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	schengen := tripFixture()

	outside := tripFixture()
	outside.CountryCode = "GB"
	outside.Category = domain.CategoryNonSchengen
	outside.StartDate = schengen.StartDate.AddDate(0, 1, 0)
	outside.EndDate = nil

	_, err := r.Create(ctx, schengen)
	require.NoError(t, err)
	_, err = r.Create(ctx, outside)
	require.NoError(t, err)

	all, err := r.List(ctx, repo.TripFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Chronological: the earlier start date comes first.
	assert.Equal(t, "FR", all[0].CountryCode)
	assert.Equal(t, "GB", all[1].CountryCode)

	cat := domain.CategorySchengen
	filtered, err := r.List(ctx, repo.TripFilter{Category: &cat})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "FR", filtered[0].CountryCode)
}

func TestTripRepo_Update(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	created.Notes = "Updated notes"
	created.EndDate = nil // clear end date
	created.SyncStatus = domain.SyncPending

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated notes", updated.Notes)
	assert.Nil(t, updated.EndDate)
	assert.Equal(t, domain.SyncPending, updated.SyncStatus)
	// updated_at should be refreshed — may be equal to created_at in fast tests,
	// but must not be zero.
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	ghost := tripFixture()
	ghost.ID = uuid.New()

	_, err := r.Update(ctx, ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	err = r.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.Delete(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_FindBySourceRef(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	ref := "asset-42"
	input := tripFixture()
	input.Source = domain.SourcePhotoImport
	input.SourceRef = &ref

	created, err := r.Create(ctx, input)
	require.NoError(t, err)

	got, err := r.FindBySourceRef(ctx, domain.SourcePhotoImport, ref)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// Same ref under a different source is a different item.
	_, err = r.FindBySourceRef(ctx, domain.SourceCalendarImport, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_FindOverlapping(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture()) // FR, Jun 1-15
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

	overlapping, err := r.FindOverlapping(ctx, "FR", day(10), day(20))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, created.ID, overlapping[0].ID)

	// Touching the span's last day still counts as overlap.
	overlapping, err = r.FindOverlapping(ctx, "FR", day(15), day(20))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	// Disjoint range.
	overlapping, err = r.FindOverlapping(ctx, "FR", day(16), day(20))
	require.NoError(t, err)
	assert.Empty(t, overlapping)

	// Different country never overlaps.
	overlapping, err = r.FindOverlapping(ctx, "DE", day(10), day(20))
	require.NoError(t, err)
	assert.Empty(t, overlapping)
}

func TestTripRepo_FindOverlapping_OngoingTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.EndDate = nil // ongoing since Jun 1

	_, err := r.Create(ctx, input)
	require.NoError(t, err)

	// An ongoing trip overlaps any later range.
	overlapping, err := r.FindOverlapping(ctx, "FR",
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}
