package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/importer"
)

// startImportRequest is the JSON body of POST /imports.
type startImportRequest struct {
	Source    string             `json:"source"` // "calendar" or "photo"
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
}

// parseImportSource accepts the API's short source names as well as the
// stored domain values ("calendar_import", "photo_import").
func parseImportSource(s string) domain.Source {
	switch s {
	case "calendar":
		return domain.SourceCalendarImport
	case "photo":
		return domain.SourcePhotoImport
	default:
		return domain.Source(s)
	}
}

// importResponse is the poll view of a session. Candidates are present only
// while the session is in review; Result only once the session is complete.
type importResponse struct {
	ID         string                `json:"id"`
	Source     string                `json:"source"`
	State      string                `json:"state"`
	Progress   importer.Progress     `json:"progress"`
	Candidates []candidateResponse   `json:"candidates,omitempty"`
	Result     *commitResultResponse `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
}

type candidateResponse struct {
	ID            string             `json:"id"`
	Country       string             `json:"country"`
	CountryName   string             `json:"country_name"`
	StartDate     openapi_types.Date `json:"start_date"`
	EndDate       openapi_types.Date `json:"end_date"`
	EvidenceCount int                `json:"evidence_count"`
	IsSchengen    bool               `json:"is_schengen"`
	Selected      bool               `json:"selected"`
}

// commitImportRequest is the JSON body of POST /imports/{id}/commit.
// CandidateIDs nil means "commit the current selection".
type commitImportRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
}

// StartImport handles POST /imports. The scan runs in the background; the
// client polls GET /imports/{id} for progress and candidates.
func (s *Server) StartImport(w http.ResponseWriter, r *http.Request) {
	var body startImportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			writeRequestError(w, "request body is required")
		} else {
			writeRequestError(w, "malformed request body")
		}
		return
	}

	dateRange := collect.DateRange{
		Start: domain.DateOf(body.StartDate.Time),
		End:   domain.DateOf(body.EndDate.Time),
	}
	session, err := s.imports.Start(r.Context(), parseImportSource(body.Source), dateRange)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sessionToResponse(session))
}

// GetImport handles GET /imports/{id}.
func (s *Server) GetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	session, err := s.imports.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// CommitImport handles POST /imports/{id}/commit.
func (s *Server) CommitImport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	session, err := s.imports.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body commitImportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeRequestError(w, "malformed request body")
		return
	}

	result, err := session.Commit(r.Context(), body.CandidateIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commitResultToResponse(result))
}

// CancelImport handles DELETE /imports/{id}. Cancelling a scan blocks until
// the scan goroutine has stopped; cancelling a review discards candidates.
func (s *Server) CancelImport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	session, err := s.imports.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := session.Cancel(); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func sessionToResponse(session *importer.Session) importResponse {
	state, progress, candidates, lastError := session.Snapshot()

	resp := importResponse{
		ID:       session.ID.String(),
		Source:   string(session.SourceKind),
		State:    string(state),
		Progress: progress,
		Error:    lastError,
	}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			ID:            c.ID,
			Country:       c.CountryCode,
			CountryName:   c.CountryName,
			StartDate:     openapi_types.Date{Time: c.StartDate},
			EndDate:       openapi_types.Date{Time: c.EndDate},
			EvidenceCount: c.EvidenceCount,
			IsSchengen:    c.IsSchengen,
			Selected:      c.Selected,
		})
	}
	if result := session.LastCommit(); result != nil {
		r := commitResultToResponse(*result)
		resp.Result = &r
	}
	return resp
}

type commitResultResponse struct {
	Inserted []tripResponse              `json:"inserted"`
	Skipped  []importer.SkippedCandidate `json:"skipped"`
	Failed   []importer.FailedCandidate  `json:"failed"`
}

func commitResultToResponse(result importer.CommitResult) commitResultResponse {
	resp := commitResultResponse{
		Inserted: []tripResponse{},
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	}
	for _, t := range result.Inserted {
		resp.Inserted = append(resp.Inserted, tripToResponse(t))
	}
	return resp
}
