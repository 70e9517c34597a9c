package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

// maxBodyBytes caps request bodies on the JSON endpoints.
const maxBodyBytes = 1 << 16

type analyzeRequest struct {
	Link string `json:"link"`
}

type recommendationsResponse struct {
	AnalysisID string   `json:"analysis_id"`
	Genres     []string `json:"genres"`
}

// decodeLink reads {"link": "..."} and writes the error response itself.
func decodeLink(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupportedMedia)
		return "", false
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "invalid JSON body", errCodeInvalidInput)
		return "", false
	}
	if req.Link == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "invalid input: link is required", errCodeInvalidInput)
		return "", false
	}
	return req.Link, true
}

// CreateAnalysis runs the pipeline synchronously and returns the stored analysis.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), link)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("analysis created",
		zap.String("analysis_id", analysis.ID),
		zap.String("playlist_id", analysis.PlaylistID),
		zap.Int("rows", len(analysis.Table.Rows)))
	w.Header().Set("Location", "/analyses/"+analysis.ID)
	writeJSON(w, http.StatusCreated, analysis)
}

// GetAnalysis returns an analysis summary.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.analyzer.GetAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// GetAnalysisTracks returns the cleaned table rows of an analysis.
func (h *Handler) GetAnalysisTracks(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.analyzer.GetAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis.Table)
}

// GetChart renders a PNG chart of an analysis.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	if h.charts == nil {
		writeErrorWithCode(w, http.StatusNotImplemented, "chart rendering not configured", errCodeNotConfigured)
		return
	}
	vars := mux.Vars(r)

	analysis, err := h.analyzer.GetAnalysis(r.Context(), vars["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.charts.Render(&buf, vars["kind"], analysis); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ListAnalyses returns stored analyses of one playlist, newest first.
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", errCodeInvalidInput)
			return
		}
		limit = n
	}

	analyses, err := h.analyzer.History(r.Context(), mux.Vars(r)["playlistID"], limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if analyses == nil {
		analyses = []domain.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

// GetRecommendations returns the taxonomy genres recommended for an analysis.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	genres, err := h.recommender.RecommendGenres(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if genres == nil {
		genres = []string{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{AnalysisID: id, Genres: genres})
}
