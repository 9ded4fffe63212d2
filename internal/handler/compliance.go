package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// complianceResponse is the JSON shape of a window evaluation. Dates are
// rendered as plain ISO dates; the window never carries times of day.
type complianceResponse struct {
	ReferenceDate openapi_types.Date  `json:"reference_date"`
	WindowStart   openapi_types.Date  `json:"window_start"`
	WindowEnd     openapi_types.Date  `json:"window_end"`
	DaysUsed      int                 `json:"days_used"`
	DaysRemaining int                 `json:"days_remaining"`
	Status        string              `json:"status"`
	NextFreeDate  *openapi_types.Date `json:"next_free_date,omitempty"`
}

// GetCompliance handles GET /compliance. Supports ?date=YYYY-MM-DD for
// historical or projected evaluation; defaults to today.
func (s *Server) GetCompliance(w http.ResponseWriter, r *http.Request) {
	var ref time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeRequestError(w, "date must be formatted YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	window, err := s.compliance.WindowAt(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windowToResponse(window))
}

func windowToResponse(wnd domain.ComplianceWindow) complianceResponse {
	resp := complianceResponse{
		ReferenceDate: openapi_types.Date{Time: wnd.ReferenceDate},
		WindowStart:   openapi_types.Date{Time: wnd.WindowStart},
		WindowEnd:     openapi_types.Date{Time: wnd.WindowEnd},
		DaysUsed:      wnd.DaysUsed,
		DaysRemaining: wnd.DaysRemaining,
		Status:        string(wnd.Status),
	}
	if wnd.NextFreeDate != nil {
		d := openapi_types.Date{Time: *wnd.NextFreeDate}
		resp.NextFreeDate = &d
	}
	return resp
}
