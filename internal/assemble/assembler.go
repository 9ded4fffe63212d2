// Package assemble turns resolved location signals into candidate trips.
// It is deliberately source-agnostic: the import session feeds it entries
// from either scan variant, and cross-source reconciliation happens later,
// at commit time, against the ledger.
package assemble

import (
	"fmt"
	"sort"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// Entry is one resolved, dated piece of evidence: a calendar event span or a
// single photo day that reverse-geocoded to a country.
type Entry struct {
	Country   domain.Country
	Start     time.Time
	End       time.Time // equal to Start for photo entries
	SourceRef string
	Evidence  int // raw signals behind this entry; 0 is treated as 1
}

// Config holds the merge-gap tolerances in days.
//
// A gap of N means N whole uncovered days between two pieces of evidence.
// Photos sample a trip sparsely (nobody photographs every day), so they get
// a wider tolerance than calendar events, which already carry precise spans.
// These are product-tuned values, not domain law; they live in config.
type Config struct {
	PhotoGapDays    int
	CalendarGapDays int
}

// DefaultConfig are the shipped tolerances.
var DefaultConfig = Config{PhotoGapDays: 2, CalendarGapDays: 1}

// CandidateTrip is a provisional trip inferred from signals, pending user
// approval in the import review step. Discarded once accepted or rejected.
type CandidateTrip struct {
	ID              string        `json:"id"`
	CountryCode     string        `json:"country_code"`
	CountryName     string        `json:"country_name"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	EvidenceCount   int           `json:"evidence_count"`
	SampleSourceRef string        `json:"sample_source_ref,omitempty"`
	IsSchengen      bool          `json:"is_schengen"`
	Source          domain.Source `json:"source"`
}

// Assemble groups entries into candidate trips.
//
// Photo entries are first reduced to one entry per calendar day — when
// photos from the same day disagree on the country, the first resolved one
// wins. Calendar entries keep their own spans. An entry then merges into the
// growing candidate when the country matches and the gap since the
// candidate's current end is within tolerance; otherwise the candidate
// closes and a new one opens. Output is in chronological start order.
func Assemble(source domain.Source, entries []Entry, cfg Config) []CandidateTrip {
	tolerance := cfg.CalendarGapDays
	if source == domain.SourcePhotoImport {
		tolerance = cfg.PhotoGapDays
		entries = reducePerDay(entries)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })

	var out []CandidateTrip
	var cur *CandidateTrip
	for _, e := range entries {
		evidence := e.Evidence
		if evidence == 0 {
			evidence = 1
		}

		if cur != nil && cur.CountryCode == e.Country.Code && gapDays(cur.EndDate, e.Start) <= tolerance {
			cur.EndDate = domain.MaxDate(cur.EndDate, e.End)
			cur.EvidenceCount += evidence
			continue
		}

		out = append(out, CandidateTrip{
			CountryCode:     e.Country.Code,
			CountryName:     e.Country.Name,
			StartDate:       e.Start,
			EndDate:         e.End,
			EvidenceCount:   evidence,
			SampleSourceRef: e.SourceRef,
			IsSchengen:      e.Country.Schengen,
			Source:          source,
		})
		cur = &out[len(out)-1]
	}

	for i := range out {
		out[i].ID = candidateID(out[i])
	}
	return out
}

// reducePerDay collapses photo entries to one per calendar day. Entries
// arrive in capture order, so "first resolved country wins" falls out of
// keeping the first entry seen for each day.
func reducePerDay(entries []Entry) []Entry {
	byDay := make(map[time.Time]*Entry, len(entries))
	var days []time.Time
	for _, e := range entries {
		day := e.Start
		if existing, ok := byDay[day]; ok {
			if existing.Country.Code == e.Country.Code {
				existing.Evidence += max(e.Evidence, 1)
			}
			// A disagreeing country on the same day is dropped: the first
			// resolved signal already claimed the day.
			continue
		}
		first := e
		if first.Evidence == 0 {
			first.Evidence = 1
		}
		byDay[day] = &first
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := make([]Entry, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out
}

// gapDays returns the number of whole uncovered days between the end of one
// span and the start of the next. Adjacent or overlapping spans yield <= 0.
func gapDays(end, nextStart time.Time) int {
	return domain.DaysBetween(end, nextStart) - 1
}

// candidateID is deterministic for a given candidate, so re-running the same
// scan yields the same IDs and the review UI can keep selections stable.
func candidateID(c CandidateTrip) string {
	return fmt.Sprintf("%s-%s-%s-%s", c.Source, c.CountryCode,
		c.StartDate.Format("20060102"), c.EndDate.Format("20060102"))
}
