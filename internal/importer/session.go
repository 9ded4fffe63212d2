// Package importer orchestrates the scan -> review -> commit flow that turns
// ambient device data into confirmed ledger trips. A session owns one scan of
// one source over one date range; its state machine is:
//
//	Idle -> Scanning -> Reviewing -> Committing -> Complete
//
// with Scanning -> PermissionPending when source access is refused
// (re-prompt and start again), any state -> Error on failure (retryable by
// starting a new session), and Reviewing/Scanning -> Idle on cancel, which
// discards all partial results.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mhartwig/schengen-keeper/internal/assemble"
	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/geocode"
)

// State is the session's position in the import flow.
type State string

const (
	StateIdle              State = "idle"
	StatePermissionPending State = "permission_pending"
	StateScanning          State = "scanning"
	StateReviewing         State = "reviewing"
	StateCommitting        State = "committing"
	StateComplete          State = "complete"
	StateError             State = "error"
)

// Progress is one snapshot of scan advancement, polled by the HTTP layer and
// pushed to the optional OnProgress callback.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Phase   string `json:"phase"` // "scanning" or "assembling"
}

// Candidate pairs an assembled candidate trip with its review selection.
// Schengen candidates are pre-selected; non-Schengen ones are not.
type Candidate struct {
	assemble.CandidateTrip
	Selected bool `json:"selected"`
}

// CommitResult is the three-way partition of a commit. Commits are
// partial-failure tolerant: one bad candidate never aborts the rest.
type CommitResult struct {
	Inserted []domain.Trip      `json:"inserted"`
	Skipped  []SkippedCandidate `json:"skipped"`
	Failed   []FailedCandidate  `json:"failed"`
}

// SkippedCandidate names a candidate that was deliberately not inserted
// (duplicate source_ref, overlap with an existing trip).
type SkippedCandidate struct {
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason"`
}

// FailedCandidate names a candidate whose insert errored.
type FailedCandidate struct {
	CandidateID string `json:"candidate_id"`
	Error       string `json:"error"`
}

// Ledger is the slice of the ledger service a session needs.
type Ledger interface {
	CommitImported(ctx context.Context, trip domain.Trip) (domain.Trip, string, error)
}

// Session runs one import. All exported methods are safe for concurrent use;
// the scan itself runs on a background goroutine and never blocks callers.
type Session struct {
	ID         uuid.UUID
	SourceKind domain.Source
	Range      collect.DateRange

	collector collect.Collector
	resolver  *geocode.Resolver
	ledger    Ledger
	cfg       assemble.Config

	// OnProgress, when set before Start, receives every progress snapshot.
	OnProgress func(Progress)

	mu           sync.Mutex
	state        State
	progress     Progress
	candidates   []Candidate
	lastError    string
	commitResult *CommitResult
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewSession builds an idle session. resolver may be nil for calendar scans.
func NewSession(collector collect.Collector, resolver *geocode.Resolver, ledger Ledger, cfg assemble.Config, r collect.DateRange) *Session {
	return &Session{
		ID:         uuid.New(),
		SourceKind: collector.Source(),
		Range:      r,
		collector:  collector,
		resolver:   resolver,
		ledger:     ledger,
		cfg:        cfg,
		state:      StateIdle,
	}
}

// Start launches the scan on a background goroutine. The scan lives as long
// as ctx does, so callers must pass a lifetime context, not a request one.
// Valid only from Idle; returns domain.ErrSessionState otherwise.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("importer.Session.Start: %w: scan already started", domain.ErrSessionState)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateScanning
	s.progress = Progress{Phase: "scanning"}

	go s.run(scanCtx)
	return nil
}

// run drives the scan to completion. It owns the state transitions out of
// Scanning; everything it touches goes through s.mu.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	entries, err := s.gather(ctx)
	if err != nil {
		s.finishScanError(err)
		return
	}

	s.setProgressPhase("assembling")
	candidates := assemble.Assemble(s.SourceKind, entries, s.cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return // cancelled while assembling
	}
	s.candidates = make([]Candidate, len(candidates))
	for i, c := range candidates {
		s.candidates[i] = Candidate{CandidateTrip: c, Selected: c.IsSchengen}
	}
	s.state = StateReviewing
}

// gather runs the collector and resolves each signal to a country, dropping
// unresolvable ones. Per-signal failures are absorbed here — a scan is
// best-effort by design.
func (s *Session) gather(ctx context.Context) ([]assemble.Entry, error) {
	var entries []assemble.Entry
	err := s.collector.Scan(ctx, s.Range, func(b collect.Batch) error {
		for _, sig := range b.Signals {
			if e, ok := s.resolve(ctx, sig); ok {
				entries = append(entries, e)
			}
		}
		s.setProgress(Progress{Current: b.Scanned, Total: b.Total, Phase: "scanning"})
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// resolve turns one raw signal into an assembler entry.
func (s *Session) resolve(ctx context.Context, sig collect.RawSignal) (assemble.Entry, bool) {
	if sig.HasCoords {
		if s.resolver == nil {
			return assemble.Entry{}, false
		}
		country, ok := s.resolver.ResolveCoordinates(ctx, sig.Lat, sig.Lng)
		if !ok {
			return assemble.Entry{}, false
		}
		return assemble.Entry{Country: country, Start: sig.Date, End: sig.EndDate, SourceRef: sig.SourceRef}, true
	}

	country, ok := domain.ResolveCountryText(sig.Text)
	if !ok {
		return assemble.Entry{}, false
	}
	return assemble.Entry{Country: country, Start: sig.Date, End: sig.EndDate, SourceRef: sig.SourceRef}, true
}

func (s *Session) finishScanError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, domain.ErrCancelled), errors.Is(err, context.Canceled):
		// User-initiated: partial results discarded, back to idle.
		s.state = StateIdle
		s.candidates = nil
		s.progress = Progress{}
	case errors.Is(err, domain.ErrPermissionDenied):
		s.state = StatePermissionPending
		s.lastError = err.Error()
	default:
		slog.Error("import scan failed", "session_id", s.ID, "source", s.SourceKind, "error", err)
		s.state = StateError
		s.lastError = err.Error()
	}
}

// Cancel aborts a scan or abandons a review. Partial results are discarded.
// Valid from Scanning or Reviewing; a no-op error otherwise.
func (s *Session) Cancel() error {
	s.mu.Lock()
	switch s.state {
	case StateScanning:
		cancel := s.cancel
		done := s.done
		s.mu.Unlock()
		cancel()
		<-done // wait for the goroutine to wind down
		// The goroutine may have finished the scan before observing the
		// cancellation; discard its results either way.
		s.mu.Lock()
		s.state = StateIdle
		s.candidates = nil
		s.progress = Progress{}
		s.mu.Unlock()
		return nil
	case StateReviewing:
		s.state = StateIdle
		s.candidates = nil
		s.progress = Progress{}
		s.mu.Unlock()
		return nil
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("importer.Session.Cancel: %w: cannot cancel in state %q", domain.ErrSessionState, state)
	}
}

// Commit inserts the candidates named by ids, each independently. IDs not
// present in the review set are reported under failed. Valid only from
// Reviewing. When ids is nil the current selection (Schengen pre-selected)
// is committed.
func (s *Session) Commit(ctx context.Context, ids []string) (CommitResult, error) {
	s.mu.Lock()
	if s.state != StateReviewing {
		state := s.state
		s.mu.Unlock()
		return CommitResult{}, fmt.Errorf("importer.Session.Commit: %w: cannot commit in state %q", domain.ErrSessionState, state)
	}
	s.state = StateCommitting
	candidates := s.candidates
	s.mu.Unlock()

	chosen := chooseCandidates(candidates, ids)

	result := CommitResult{
		Inserted: []domain.Trip{},
		Skipped:  []SkippedCandidate{},
		Failed:   []FailedCandidate{},
	}
	for _, c := range chosen {
		trip := candidateToTrip(c.CandidateTrip)
		inserted, skipReason, err := s.ledger.CommitImported(ctx, trip)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, FailedCandidate{CandidateID: c.ID, Error: err.Error()})
		case skipReason != "":
			result.Skipped = append(result.Skipped, SkippedCandidate{CandidateID: c.ID, Reason: skipReason})
		default:
			result.Inserted = append(result.Inserted, inserted)
		}
	}
	for _, id := range unknownIDs(candidates, ids) {
		result.Failed = append(result.Failed, FailedCandidate{CandidateID: id, Error: "unknown candidate id"})
	}

	s.mu.Lock()
	s.state = StateComplete
	s.candidates = nil // candidates are discarded once reviewed
	s.commitResult = &result
	s.mu.Unlock()
	return result, nil
}

// LastCommit returns the commit result once the session is complete, so a
// client that missed the commit response can re-fetch it. Nil before then.
func (s *Session) LastCommit() *CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitResult
}

// Snapshot returns the session's externally visible state for polling.
func (s *Session) Snapshot() (State, Progress, []Candidate, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidates := make([]Candidate, len(s.candidates))
	copy(candidates, s.candidates)
	return s.state, s.progress, candidates, s.lastError
}

func (s *Session) setProgress(p Progress) {
	s.mu.Lock()
	s.progress = p
	cb := s.OnProgress
	s.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

func (s *Session) setProgressPhase(phase string) {
	s.mu.Lock()
	s.progress.Phase = phase
	cb := s.OnProgress
	p := s.progress
	s.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

// chooseCandidates returns the candidates to commit: those named by ids, or
// the currently selected ones when ids is nil.
func chooseCandidates(candidates []Candidate, ids []string) []Candidate {
	if ids == nil {
		var out []Candidate
		for _, c := range candidates {
			if c.Selected {
				out = append(out, c)
			}
		}
		return out
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Candidate
	for _, c := range candidates {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// unknownIDs returns requested ids that match no candidate.
func unknownIDs(candidates []Candidate, ids []string) []string {
	if ids == nil {
		return nil
	}
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	var out []string
	for _, id := range ids {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out
}

// candidateToTrip maps an accepted candidate onto a ledger trip. The
// source_ref is the per-signal sample key (event ID, photo asset ID) so that
// re-importing the same underlying item is recognized as a duplicate; the
// synthetic candidate ID is only the fallback.
func candidateToTrip(c assemble.CandidateTrip) domain.Trip {
	end := c.EndDate
	category := domain.CategoryNonSchengen
	if c.IsSchengen {
		category = domain.CategorySchengen
	}
	ref := c.SampleSourceRef
	if ref == "" {
		ref = c.ID
	}
	return domain.Trip{
		StartDate:   c.StartDate,
		EndDate:     &end,
		CountryCode: c.CountryCode,
		Category:    category,
		Source:      c.Source,
		SourceRef:   &ref,
		SyncStatus:  domain.SyncPending,
	}
}

// WaitDone blocks until the scan goroutine exits, or the timeout elapses.
// Test helper; production callers poll Snapshot instead.
func (s *Session) WaitDone(timeout time.Duration) bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
