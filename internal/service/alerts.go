package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/notify"
	"github.com/mhartwig/schengen-keeper/internal/repo"
)

// ComplianceReader is the slice of ComplianceService the alerts evaluator
// needs. Declared here, in the consumer, so tests can inject a stub window.
type ComplianceReader interface {
	WindowAt(ctx context.Context, ref time.Time) (domain.ComplianceWindow, error)
}

// AlertsService turns compliance windows into user notifications.
//
// At most one alert fires per status transition: the last notified status is
// persisted, and a new alert is emitted only when today's status differs from
// it. Evaluation is idempotent — calling Evaluate twice on the same day
// produces at most one event.
type AlertsService struct {
	compliance ComplianceReader
	state      repo.AlertStateRepo
	publisher  notify.Publisher
	now        func() time.Time
}

// NewAlertsService constructs an AlertsService.
func NewAlertsService(compliance ComplianceReader, state repo.AlertStateRepo, publisher notify.Publisher) *AlertsService {
	return &AlertsService{compliance: compliance, state: state, publisher: publisher, now: time.Now}
}

// Settings returns the stored alert settings (defaults when none exist yet).
func (s *AlertsService) Settings(ctx context.Context) (domain.AlertSettings, error) {
	settings, err := s.state.Get(ctx)
	if err != nil {
		return domain.AlertSettings{}, fmt.Errorf("service.AlertsService.Settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings persists new preference values, preserving the stored
// last-notified status so toggling preferences cannot re-trigger an alert.
func (s *AlertsService) UpdateSettings(ctx context.Context, in domain.AlertSettings) (domain.AlertSettings, error) {
	current, err := s.state.Get(ctx)
	if err != nil {
		return domain.AlertSettings{}, fmt.Errorf("service.AlertsService.UpdateSettings: %w", err)
	}
	current.Enabled = in.Enabled
	current.NotifyOnImprovement = in.NotifyOnImprovement

	saved, err := s.state.Save(ctx, current)
	if err != nil {
		return domain.AlertSettings{}, fmt.Errorf("service.AlertsService.UpdateSettings: %w", err)
	}
	return saved, nil
}

// Evaluate computes today's compliance window, compares its status to the
// last notified one, and publishes a single AlertStatusChanged event when
// the status moved. Returns the event that was emitted, or nil.
func (s *AlertsService) Evaluate(ctx context.Context) (*notify.AlertStatusChanged, error) {
	settings, err := s.state.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AlertsService.Evaluate: %w", err)
	}
	if !settings.Enabled {
		return nil, nil
	}

	window, err := s.compliance.WindowAt(ctx, domain.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("service.AlertsService.Evaluate: %w", err)
	}

	last := settings.LastNotifiedStatus
	if window.Status == last {
		return nil, nil
	}
	if last != "" && !domain.IsWorsening(last, window.Status) && !settings.NotifyOnImprovement {
		// Improvement with improvement alerts off: stay quiet, but record the
		// new status so the next worsening fires relative to where we are now.
		settings.LastNotifiedStatus = window.Status
		if _, err := s.state.Save(ctx, settings); err != nil {
			return nil, fmt.Errorf("service.AlertsService.Evaluate: %w", err)
		}
		return nil, nil
	}

	event := notify.AlertStatusChanged{
		OccurredAt:    s.now().UTC(),
		FromStatus:    last,
		ToStatus:      window.Status,
		DaysUsed:      window.DaysUsed,
		DaysRemaining: window.DaysRemaining,
		WindowStart:   window.WindowStart,
		WindowEnd:     window.WindowEnd,
	}
	if err := s.publisher.PublishAlert(ctx, event); err != nil {
		// Do not advance the stored status on a failed publish; the next
		// evaluation will retry the same transition.
		return nil, fmt.Errorf("service.AlertsService.Evaluate: publish: %w", err)
	}

	settings.LastNotifiedStatus = window.Status
	if _, err := s.state.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("service.AlertsService.Evaluate: %w", err)
	}
	return &event, nil
}

// RunPeriodic evaluates on a fixed interval until ctx is cancelled.
// Intended to be started from main as a background goroutine.
func (s *AlertsService) RunPeriodic(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Evaluate(ctx); err != nil {
				slog.Error("alert evaluation failed", "error", err)
			}
		}
	}
}
