package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/repo"
)

// ComputeWindow evaluates the Schengen 90/180 rule at the given reference
// date over a snapshot of the trip ledger.
//
// The function is pure and total: it never fails, an empty ledger yields
// days_used = 0, and ref may be any date — past or future — so callers can
// preview "what if I stay until X". Only trips with Category == schengen
// contribute; overlapping trips never double-count a day. A trip with no end
// date is ongoing and covers every day from its start through ref (and
// beyond, for the next-free-date projection).
func ComputeWindow(trips []domain.Trip, ref time.Time, th domain.Thresholds) domain.ComplianceWindow {
	ref = domain.DateOf(ref)
	windowStart := ref.AddDate(0, 0, -(domain.WindowDays - 1))

	spans := schengenSpans(trips)

	used := countCoveredDays(spans, windowStart, ref)
	w := domain.ComplianceWindow{
		ReferenceDate: ref,
		WindowStart:   windowStart,
		WindowEnd:     ref,
		DaysUsed:      used,
		DaysRemaining: max(0, domain.AllowedDays-used),
		Status:        th.StatusFor(used),
	}
	if used > 0 {
		w.NextFreeDate = nextFreeDate(spans, ref, used)
	}
	return w
}

// span is a merged, inclusive run of covered days. openEnd marks an ongoing
// trip, which covers every day from start onward.
type span struct {
	start, end time.Time
	openEnd    bool
}

// schengenSpans reduces the ledger to a sorted, non-overlapping list of
// covered-day runs. Merging here is what guarantees overlapping trips count
// each calendar day once.
func schengenSpans(trips []domain.Trip) []span {
	var raw []span
	for _, t := range trips {
		if t.Category != domain.CategorySchengen {
			continue
		}
		s := span{start: domain.DateOf(t.StartDate)}
		if t.EndDate == nil {
			s.openEnd = true
			s.end = s.start
		} else {
			s.end = domain.DateOf(*t.EndDate)
		}
		raw = append(raw, s)
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].start.Before(raw[j].start) })

	var merged []span
	for _, s := range raw {
		if len(merged) == 0 {
			merged = append(merged, s)
			continue
		}
		last := &merged[len(merged)-1]
		if last.openEnd {
			// Everything after an open span is swallowed by it.
			continue
		}
		// Adjacent runs (gap of zero days) merge too: ...Jan 10 + Jan 11...
		if !s.start.After(last.end.AddDate(0, 0, 1)) {
			if s.openEnd {
				last.openEnd = true
			}
			last.end = domain.MaxDate(last.end, s.end)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// countCoveredDays counts distinct covered days inside [from, to] inclusive.
func countCoveredDays(spans []span, from, to time.Time) int {
	total := 0
	for _, s := range spans {
		end := s.end
		if s.openEnd {
			end = to
		}
		start := domain.MaxDate(s.start, from)
		end = domain.MinDate(end, to)
		if end.Before(start) {
			continue
		}
		total += domain.DaysBetween(start, end) + 1
	}
	return total
}

// covered reports whether the single day d falls inside any span.
func covered(spans []span, d time.Time) bool {
	for _, s := range spans {
		if d.Before(s.start) {
			return false // spans are sorted; nothing later can match
		}
		if s.openEnd || !d.After(s.end) {
			return true
		}
	}
	return false
}

// nextFreeDate walks the window forward one day at a time until days_used
// drops below its value at ref. Each step gains the entering day and loses
// the day exiting the trailing window, so the count is maintained in O(1)
// per step. With an ongoing trip every entering day is covered and the count
// never drops; the projection gives up after two full window lengths and
// returns nil.
func nextFreeDate(spans []span, ref time.Time, usedAtRef int) *time.Time {
	used := usedAtRef
	for i := 1; i <= 2*domain.WindowDays; i++ {
		day := ref.AddDate(0, 0, i)
		exiting := day.AddDate(0, 0, -domain.WindowDays)
		if covered(spans, day) {
			used++
		}
		if covered(spans, exiting) {
			used--
		}
		if used < usedAtRef {
			return &day
		}
	}
	return nil
}

// ComplianceService answers compliance queries against the live ledger.
// It is a pure reader: any number of callers may query concurrently while
// the ledger service writes.
type ComplianceService struct {
	trips      repo.TripRepo
	thresholds domain.Thresholds
	now        func() time.Time
}

// NewComplianceService constructs a ComplianceService. A zero Thresholds
// value falls back to the shipped defaults.
func NewComplianceService(trips repo.TripRepo, th domain.Thresholds) *ComplianceService {
	if th == (domain.Thresholds{}) {
		th = domain.DefaultThresholds
	}
	return &ComplianceService{trips: trips, thresholds: th, now: time.Now}
}

// WindowAt loads the Schengen trips and evaluates the window at ref.
// A zero ref means "today" (device-local calendar day).
func (s *ComplianceService) WindowAt(ctx context.Context, ref time.Time) (domain.ComplianceWindow, error) {
	if ref.IsZero() {
		ref = domain.DateOf(s.now())
	}
	cat := domain.CategorySchengen
	trips, err := s.trips.List(ctx, repo.TripFilter{Category: &cat})
	if err != nil {
		return domain.ComplianceWindow{}, fmt.Errorf("service.ComplianceService.WindowAt: %w", err)
	}
	return ComputeWindow(trips, ref, s.thresholds), nil
}
