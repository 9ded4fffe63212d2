package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// AlertStateRepo persists the single alert settings record, including the
// last-notified status that suppresses repeat alerts.
type AlertStateRepo interface {
	// Get returns the stored settings. When no row exists yet it returns
	// domain.DefaultAlertSettings() rather than an error, so callers never
	// need a "first run" branch.
	Get(ctx context.Context) (domain.AlertSettings, error)

	// Save upserts the settings record.
	Save(ctx context.Context, s domain.AlertSettings) (domain.AlertSettings, error)
}

// pgAlertStateRepo is the Postgres implementation of AlertStateRepo.
// The table holds at most one row, keyed by a constant id.
type pgAlertStateRepo struct {
	db db
}

// NewAlertStateRepo constructs an AlertStateRepo backed by the provided db.
func NewAlertStateRepo(db db) AlertStateRepo {
	return &pgAlertStateRepo{db: db}
}

func (r *pgAlertStateRepo) Get(ctx context.Context) (domain.AlertSettings, error) {
	const q = `
		SELECT enabled, notify_on_improvement, last_notified_status, updated_at
		FROM alert_settings
		WHERE id = true`

	var (
		s          domain.AlertSettings
		lastStatus string
	)
	err := r.db.QueryRow(ctx, q).Scan(&s.Enabled, &s.NotifyOnImprovement, &lastStatus, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultAlertSettings(), nil
		}
		return domain.AlertSettings{}, fmt.Errorf("repo.AlertStateRepo.Get: %w", err)
	}
	s.LastNotifiedStatus = domain.ComplianceStatus(lastStatus)
	return s, nil
}

func (r *pgAlertStateRepo) Save(ctx context.Context, s domain.AlertSettings) (domain.AlertSettings, error) {
	const q = `
		INSERT INTO alert_settings (id, enabled, notify_on_improvement, last_notified_status, updated_at)
		VALUES (true, @enabled, @notify_on_improvement, @last_notified_status, now())
		ON CONFLICT (id) DO UPDATE
		SET enabled               = excluded.enabled,
		    notify_on_improvement = excluded.notify_on_improvement,
		    last_notified_status  = excluded.last_notified_status,
		    updated_at            = now()
		RETURNING enabled, notify_on_improvement, last_notified_status, updated_at`

	args := pgx.NamedArgs{
		"enabled":               s.Enabled,
		"notify_on_improvement": s.NotifyOnImprovement,
		"last_notified_status":  string(s.LastNotifiedStatus),
	}

	var (
		out        domain.AlertSettings
		lastStatus string
	)
	err := r.db.QueryRow(ctx, q, args).Scan(&out.Enabled, &out.NotifyOnImprovement, &lastStatus, &out.UpdatedAt)
	if err != nil {
		return domain.AlertSettings{}, fmt.Errorf("repo.AlertStateRepo.Save: %w", err)
	}
	out.LastNotifiedStatus = domain.ComplianceStatus(lastStatus)
	return out, nil
}
