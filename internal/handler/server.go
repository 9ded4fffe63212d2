// Package handler implements the HTTP handlers for the Schengen Keeper API.
// All handlers are methods on Server; they are split into domain-specific
// files (trip.go, compliance.go, imports.go, ...) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/importer"
	"github.com/mhartwig/schengen-keeper/internal/notify"
)

// TripServicer defines the ledger operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, category *domain.Category) ([]domain.Trip, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ComplianceQuerier answers rolling-window queries.
type ComplianceQuerier interface {
	WindowAt(ctx context.Context, ref time.Time) (domain.ComplianceWindow, error)
}

// AlertsManager exposes alert settings and on-demand evaluation.
type AlertsManager interface {
	Settings(ctx context.Context) (domain.AlertSettings, error)
	UpdateSettings(ctx context.Context, s domain.AlertSettings) (domain.AlertSettings, error)
	Evaluate(ctx context.Context) (*notify.AlertStatusChanged, error)
}

// ImportManager creates and retrieves import sessions.
type ImportManager interface {
	Start(ctx context.Context, source domain.Source, r collect.DateRange) (*importer.Session, error)
	Get(id uuid.UUID) (*importer.Session, error)
}

// Server holds the handler dependencies. Wire it in main.go and mount
// Routes() on the router.
type Server struct {
	trips      TripServicer
	compliance ComplianceQuerier
	alerts     AlertsManager
	imports    ImportManager
	openapi    []byte
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, compliance ComplianceQuerier, alerts AlertsManager, imports ImportManager, openapi []byte) *Server {
	return &Server{trips: trips, compliance: compliance, alerts: alerts, imports: imports, openapi: openapi}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Get("/export", s.ExportTrips)
		r.Get("/{id}", s.GetTrip)
		r.Put("/{id}", s.UpdateTrip)
		r.Delete("/{id}", s.DeleteTrip)
	})

	r.Get("/compliance", s.GetCompliance)

	r.Route("/imports", func(r chi.Router) {
		r.Post("/", s.StartImport)
		r.Get("/{id}", s.GetImport)
		r.Post("/{id}/commit", s.CommitImport)
		r.Delete("/{id}", s.CancelImport)
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/settings", s.GetAlertSettings)
		r.Put("/settings", s.UpdateAlertSettings)
		r.Post("/evaluate", s.EvaluateAlerts)
	})

	return r
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI serves the embedded OpenAPI document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.openapi)
}
