package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/adapters/charts"
	"github.com/ewilliams-labs/encore/internal/core/services"
	"github.com/ewilliams-labs/encore/internal/worker"
)

// JobQueue accepts analyses for background processing.
type JobQueue interface {
	Submit(link string) (string, error)
	Status(id string) (worker.Job, error)
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	analyzer    *services.Analyzer
	recommender *services.Recommender
	jobs        JobQueue
	charts      *charts.Renderer
	router      *mux.Router
	logger      *zap.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes. jobs and
// renderer may be nil; their routes then answer 501.
func NewHandler(analyzer *services.Analyzer, recommender *services.Recommender, jobs JobQueue, renderer *charts.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		analyzer:    analyzer,
		recommender: recommender,
		jobs:        jobs,
		charts:      renderer,
		router:      mux.NewRouter(),
		logger:      logger.Named("rest"),
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	// Analyses
	h.router.HandleFunc("/analyses", h.CreateAnalysis).Methods(http.MethodPost)
	h.router.HandleFunc("/analyses/jobs", h.SubmitJob).Methods(http.MethodPost)
	h.router.HandleFunc("/analyses/{id}", h.GetAnalysis).Methods(http.MethodGet)
	h.router.HandleFunc("/analyses/{id}/tracks", h.GetAnalysisTracks).Methods(http.MethodGet)
	h.router.HandleFunc("/analyses/{id}/charts/{kind}", h.GetChart).Methods(http.MethodGet)
	h.router.HandleFunc("/analyses/{id}/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	h.router.HandleFunc("/playlists/{playlistID}/analyses", h.ListAnalyses).Methods(http.MethodGet)

	// Jobs and events
	h.router.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	h.router.HandleFunc("/events", h.SearchEvents).Methods(http.MethodGet)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorWithCode(w, http.StatusNotFound, "route not found", errCodeNotFound)
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorWithCode(w, http.StatusMethodNotAllowed, "method not allowed", errCodeMethodNotAllowed)
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
