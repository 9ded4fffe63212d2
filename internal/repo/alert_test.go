package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/repo"
	"github.com/mhartwig/schengen-keeper/testutil"
)

func newTestAlertRepo(t *testing.T) repo.AlertStateRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewAlertStateRepo(tx)
}

func TestAlertStateRepo_Get_NoRow(t *testing.T) {
	r := newTestAlertRepo(t)

	got, err := r.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAlertSettings(), got, "missing row should yield defaults, not an error")
}

func TestAlertStateRepo_SaveAndGet(t *testing.T) {
	r := newTestAlertRepo(t)
	ctx := context.Background()

	saved, err := r.Save(ctx, domain.AlertSettings{
		Enabled:             true,
		NotifyOnImprovement: true,
		LastNotifiedStatus:  domain.StatusWarning,
	})
	require.NoError(t, err)
	assert.True(t, saved.Enabled)
	assert.True(t, saved.NotifyOnImprovement)
	assert.Equal(t, domain.StatusWarning, saved.LastNotifiedStatus)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestAlertStateRepo_Save_Upserts(t *testing.T) {
	r := newTestAlertRepo(t)
	ctx := context.Background()

	_, err := r.Save(ctx, domain.AlertSettings{Enabled: true})
	require.NoError(t, err)

	// A second save overwrites the single row rather than inserting another.
	updated, err := r.Save(ctx, domain.AlertSettings{
		Enabled:            false,
		LastNotifiedStatus: domain.StatusDanger,
	})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, domain.StatusDanger, updated.LastNotifiedStatus)
}
