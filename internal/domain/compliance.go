package domain

import "time"

// WindowDays is the length of the rolling window: any trailing 180-day span.
const WindowDays = 180

// AllowedDays is the regulatory cap on Schengen presence inside one window.
const AllowedDays = 90

// ComplianceStatus buckets days_used into a user-facing severity.
type ComplianceStatus string

const (
	StatusSafe    ComplianceStatus = "safe"
	StatusCaution ComplianceStatus = "caution"
	StatusWarning ComplianceStatus = "warning"
	StatusDanger  ComplianceStatus = "danger"
)

// Thresholds holds the days_used cut-offs for each status.
// These are product-tuned values, not regulation, so they live in config.
type Thresholds struct {
	Caution int // days_used >= Caution -> caution
	Warning int // days_used >= Warning -> warning
	Danger  int // days_used >= Danger  -> danger
}

// DefaultThresholds are the shipped cut-offs.
var DefaultThresholds = Thresholds{Caution: 60, Warning: 75, Danger: 85}

// StatusFor maps a days_used count to its severity bucket.
func (t Thresholds) StatusFor(daysUsed int) ComplianceStatus {
	switch {
	case daysUsed >= t.Danger:
		return StatusDanger
	case daysUsed >= t.Warning:
		return StatusWarning
	case daysUsed >= t.Caution:
		return StatusCaution
	default:
		return StatusSafe
	}
}

// ComplianceWindow is the result of evaluating the 90/180 rule at a
// reference date. Computed on demand, never stored.
type ComplianceWindow struct {
	ReferenceDate time.Time        `json:"reference_date"`
	WindowStart   time.Time        `json:"window_start"` // ReferenceDate - 179 days
	WindowEnd     time.Time        `json:"window_end"`   // == ReferenceDate
	DaysUsed      int              `json:"days_used"`
	DaysRemaining int              `json:"days_remaining"`
	Status        ComplianceStatus `json:"status"`

	// NextFreeDate is the earliest future reference date at which DaysUsed
	// would strictly decrease because the oldest counted day falls out of
	// the trailing window. Nil when no days are currently counted.
	NextFreeDate *time.Time `json:"next_free_date,omitempty"`
}
