package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// csvHeaders defines the column names written as the first row of the export.
var csvHeaders = []string{
	"id", "start_date", "end_date", "country", "category",
	"source", "source_ref", "notes", "sync_status",
}

// ExportTrips handles GET /trips/export: the full ledger as CSV, for
// spreadsheet review or hand-off to a lawyer. Ongoing trips have an empty
// end_date column.
func (s *Server) ExportTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context(), nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck — bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, t := range trips {
		//nolint:errcheck
		cw.Write(tripToCSVRecord(t))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// tripToCSVRecord encodes a trip as a flat string slice.
// Nil pointers are encoded as empty strings.
func tripToCSVRecord(t domain.Trip) []string {
	return []string{
		t.ID.String(),
		t.StartDate.Format("2006-01-02"),
		formatOptionalDate(t.EndDate),
		t.CountryCode,
		string(t.Category),
		string(t.Source),
		optionalString(t.SourceRef),
		t.Notes,
		string(t.SyncStatus),
	}
}

// formatOptionalDate returns the ISO date of t, or "" if t is nil.
func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
