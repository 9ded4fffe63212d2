package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// alertSettingsRequest is the JSON body of PUT /alerts/settings.
// LastNotifiedStatus is server-owned and cannot be set by the client.
type alertSettingsRequest struct {
	Enabled             bool `json:"enabled"`
	NotifyOnImprovement bool `json:"notify_on_improvement"`
}

// GetAlertSettings handles GET /alerts/settings.
func (s *Server) GetAlertSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.alerts.Settings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateAlertSettings handles PUT /alerts/settings.
func (s *Server) UpdateAlertSettings(w http.ResponseWriter, r *http.Request) {
	var body alertSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			writeRequestError(w, "request body is required")
		} else {
			writeRequestError(w, "malformed request body")
		}
		return
	}

	updated, err := s.alerts.UpdateSettings(r.Context(), domain.AlertSettings{
		Enabled:             body.Enabled,
		NotifyOnImprovement: body.NotifyOnImprovement,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// EvaluateAlerts handles POST /alerts/evaluate: an on-demand evaluation of
// the current status against the last notified one. The periodic evaluator
// runs the same code path.
func (s *Server) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	event, err := s.alerts.Evaluate(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if event == nil {
		writeJSON(w, http.StatusOK, map[string]any{"alerted": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerted": true, "event": event})
}
