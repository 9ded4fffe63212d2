package domain

import "time"

// AlertSettings holds the user's notification preferences together with the
// last status they were notified about. Persisted as a single row; the
// service is single-tenant, so there is exactly one settings record.
type AlertSettings struct {
	// Enabled is the master switch. When false no alerts are emitted and
	// LastNotifiedStatus is left untouched.
	Enabled bool `json:"enabled"`

	// NotifyOnImprovement controls whether transitions toward safety
	// (e.g. warning -> caution) also produce an alert, or only worsening ones.
	NotifyOnImprovement bool `json:"notify_on_improvement"`

	// LastNotifiedStatus suppresses repeat alerts: a new alert fires only
	// when today's status differs from this value. Empty until the first
	// evaluation runs.
	LastNotifiedStatus ComplianceStatus `json:"last_notified_status,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAlertSettings are applied when no settings row exists yet.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{Enabled: true, NotifyOnImprovement: false}
}

// severityRank orders statuses for improvement/worsening comparisons.
var severityRank = map[ComplianceStatus]int{
	StatusSafe:    0,
	StatusCaution: 1,
	StatusWarning: 2,
	StatusDanger:  3,
}

// IsWorsening reports whether the from -> to transition increases severity.
func IsWorsening(from, to ComplianceStatus) bool {
	return severityRank[to] > severityRank[from]
}
