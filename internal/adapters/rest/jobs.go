package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type jobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitJob queues an analysis and returns its job id.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeErrorWithCode(w, http.StatusNotImplemented, "background jobs not configured", errCodeNotConfigured)
		return
	}
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	id, err := h.jobs.Submit(link)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("job queued", zap.String("job_id", id))
	w.Header().Set("Location", "/jobs/"+id)
	writeJSON(w, http.StatusAccepted, jobResponse{JobID: id})
}

// GetJob reports the state of a queued analysis.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeErrorWithCode(w, http.StatusNotImplemented, "background jobs not configured", errCodeNotConfigured)
		return
	}

	job, err := h.jobs.Status(mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
