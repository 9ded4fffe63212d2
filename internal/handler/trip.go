package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// tripRequest is the JSON body of POST /trips and PUT /trips/{id}.
// Category is optional; when omitted it is derived from the country's
// Schengen membership.
type tripRequest struct {
	StartDate  openapi_types.Date  `json:"start_date"`
	EndDate    *openapi_types.Date `json:"end_date,omitempty"`
	Country    string              `json:"country"`
	Category   *string             `json:"category,omitempty"`
	Notes      *string             `json:"notes,omitempty"`
	SyncStatus *string             `json:"sync_status,omitempty"`
}

// tripResponse is the JSON shape of a ledger trip.
type tripResponse struct {
	ID         uuid.UUID           `json:"id"`
	StartDate  openapi_types.Date  `json:"start_date"`
	EndDate    *openapi_types.Date `json:"end_date,omitempty"`
	Country    string              `json:"country"`
	Category   string              `json:"category"`
	Source     string              `json:"source"`
	SourceRef  *string             `json:"source_ref,omitempty"`
	Notes      string              `json:"notes,omitempty"`
	SyncStatus string              `json:"sync_status"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := decodeTripRequest(w, r)
	if !ok {
		return
	}
	trip.Source = domain.SourceManual

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips. Supports ?category=schengen|non_schengen.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var category *domain.Category
	if v := r.URL.Query().Get("category"); v != "" {
		c := domain.Category(v)
		if c != domain.CategorySchengen && c != domain.CategoryNonSchengen {
			writeRequestError(w, "invalid category filter")
			return
		}
		category = &c
	}

	trips, err := s.trips.List(r.Context(), category)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	trip, ok := decodeTripRequest(w, r)
	if !ok {
		return
	}
	trip.ID = id

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// parseID extracts and validates the {id} URL parameter.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return uuid.UUID{}, false
	}
	return id, true
}

// decodeTripRequest decodes and minimally validates the request body.
// Business-rule validation stays in the service layer.
func decodeTripRequest(w http.ResponseWriter, r *http.Request) (domain.Trip, bool) {
	var body tripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			writeRequestError(w, "request body is required")
		} else {
			writeRequestError(w, "malformed request body")
		}
		return domain.Trip{}, false
	}
	if body.Country == "" {
		writeRequestError(w, "country is required")
		return domain.Trip{}, false
	}
	if body.StartDate.IsZero() {
		writeRequestError(w, "start_date is required")
		return domain.Trip{}, false
	}

	trip := domain.Trip{
		StartDate:   body.StartDate.Time,
		CountryCode: body.Country,
	}
	if body.EndDate != nil {
		ed := body.EndDate.Time
		trip.EndDate = &ed
	}
	if body.Category != nil {
		trip.Category = domain.Category(*body.Category)
	}
	if body.Notes != nil {
		trip.Notes = *body.Notes
	}
	if body.SyncStatus != nil {
		trip.SyncStatus = domain.SyncStatus(*body.SyncStatus)
	}
	return trip, true
}

// tripToResponse converts a domain.Trip into its JSON shape.
func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{
		ID:         t.ID,
		StartDate:  openapi_types.Date{Time: t.StartDate},
		Country:    t.CountryCode,
		Category:   string(t.Category),
		Source:     string(t.Source),
		SourceRef:  t.SourceRef,
		Notes:      t.Notes,
		SyncStatus: string(t.SyncStatus),
	}
	if t.EndDate != nil {
		ed := openapi_types.Date{Time: *t.EndDate}
		resp.EndDate = &ed
	}
	return resp
}
