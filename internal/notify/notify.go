// Package notify carries alert events out of the service toward the push and
// email delivery collaborator. Delivery itself is out of scope here; this
// package only publishes a structured event onto the broker the delivery
// system consumes from.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// AlertStatusChanged is the event published when the compliance status
// crosses into a different bucket. One event per transition, never repeats.
type AlertStatusChanged struct {
	OccurredAt    time.Time               `json:"occurred_at"`
	FromStatus    domain.ComplianceStatus `json:"from_status,omitempty"`
	ToStatus      domain.ComplianceStatus `json:"to_status"`
	DaysUsed      int                     `json:"days_used"`
	DaysRemaining int                     `json:"days_remaining"`
	WindowStart   time.Time               `json:"window_start"`
	WindowEnd     time.Time               `json:"window_end"`
}

// Publisher sends alert events to whatever transport is configured.
type Publisher interface {
	PublishAlert(ctx context.Context, event AlertStatusChanged) error
}

// LogPublisher writes events to the structured log instead of a broker.
// Used when no broker is configured (local development, tests).
type LogPublisher struct{}

func (LogPublisher) PublishAlert(_ context.Context, e AlertStatusChanged) error {
	slog.Info("alert status changed",
		"from", string(e.FromStatus),
		"to", string(e.ToStatus),
		"days_used", e.DaysUsed,
		"days_remaining", e.DaysRemaining,
	)
	return nil
}
