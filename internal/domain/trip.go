// Package domain contains the core data types for the Schengen Keeper API.
// This package depends only on the standard library and google/uuid and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a trip for the 90/180 day count.
// Only schengen trips contribute days to the rolling window; non-Schengen
// trips are recorded in the ledger for history but never counted.
type Category string

const (
	CategorySchengen    Category = "schengen"
	CategoryNonSchengen Category = "non_schengen"
)

// Source records how a trip entered the ledger.
type Source string

const (
	SourceManual         Source = "manual"
	SourceCalendarImport Source = "calendar_import"
	SourcePhotoImport    Source = "photo_import"
)

// SyncStatus tracks whether a trip has been replicated to the remote store.
// The sync transport itself is an external collaborator; this service only
// records the outcome it reports.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Trip represents a single confirmed stay in one country.
// Dates are inclusive calendar days: a trip with StartDate == EndDate lasted
// one day. EndDate is nil while the trip is still ongoing; the compliance
// calculator treats an ongoing trip as extending through the reference date.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CountryCode string     `json:"country"` // ISO-3166 alpha-2, upper case
	Category    Category   `json:"category"`
	Source      Source     `json:"source"`
	SourceRef   *string    `json:"source_ref,omitempty"` // opaque dedup key, set for imported trips
	Notes       string     `json:"notes,omitempty"`
	SyncStatus  SyncStatus `json:"sync_status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EndOrOngoing returns the trip's end date, or ref for an ongoing trip.
// An ongoing trip that started after ref contributes nothing; callers clip
// to the window anyway, so returning ref is safe in that case too.
func (t Trip) EndOrOngoing(ref time.Time) time.Time {
	if t.EndDate != nil {
		return *t.EndDate
	}
	return ref
}

// Duration returns the inclusive length of the trip in days as of ref.
func (t Trip) Duration(ref time.Time) int {
	return DaysBetween(t.StartDate, t.EndOrOngoing(ref)) + 1
}
