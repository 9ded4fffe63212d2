// Package collect scans ambient device data sources (calendar events,
// geotagged photos) and emits raw dated location signals for the trip
// assembler. Device access goes through provider ports; the real providers
// live on the mobile side of the interop boundary, fakes live in fake/.
package collect

import (
	"context"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// DateRange is an inclusive span of calendar days to scan.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// RawSignal is one dated location observation. Signals are ephemeral: they
// exist only during a scan and are never persisted.
type RawSignal struct {
	// Date is the capture day (photo) or event start day (calendar).
	Date time.Time
	// EndDate is the event's own end day for calendar signals; equal to
	// Date for photo signals.
	EndDate time.Time

	// Text is the free-text location for calendar signals (title + location
	// fields joined), empty for photos.
	Text string

	// Lat/Lng carry the GPS fix for photo signals; HasCoords distinguishes
	// a real (0, 0) fix from absence.
	Lat, Lng  float64
	HasCoords bool

	// SourceRef is the opaque per-item key (event ID, photo asset ID) that
	// makes imports idempotent.
	SourceRef string
}

// Batch is one progress tick of a scan: the signals gathered since the last
// tick plus running counts for the progress bar.
type Batch struct {
	Signals []RawSignal
	Scanned int // items inspected so far (matching or not)
	Total   int // items in range, known up front
}

// batchSize is how many inspected items pass between progress ticks and
// cancellation checks.
const batchSize = 25

// Collector is the common contract of both scan variants. Scan pushes
// batches through emit in date order; it is lazy in the sense that signals
// are handed over as they are found, cancellable between batches via ctx or
// an error returned from emit, and restartable only from the beginning.
type Collector interface {
	Source() domain.Source
	Scan(ctx context.Context, r DateRange, emit func(Batch) error) error
}
