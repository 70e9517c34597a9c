package rest

import (
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/adapters/charts"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
	"github.com/ewilliams-labs/encore/internal/worker"
)

const (
	errCodeInvalidInput     = "INVALID_INPUT"
	errCodeInvalidQuery     = "INVALID_QUERY"
	errCodeNotFound         = "NOT_FOUND"
	errCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	errCodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	errCodeRateLimited      = "RATE_LIMITED"
	errCodeUpstream         = "UPSTREAM_FAILURE"
	errCodeQueueFull        = "QUEUE_FULL"
	errCodeNotConfigured    = "NOT_CONFIGURED"
	errCodeInternal         = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// writeServiceError maps pipeline and adapter errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rateErr *ports.RateLimitError
	switch {
	case errors.Is(err, domain.ErrInvalidLink):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidInput)
	case errors.Is(err, domain.ErrInvalidQuery):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidQuery)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, charts.ErrUnknownChart):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeQueueFull)
	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
		}
		writeErrorWithCode(w, http.StatusTooManyRequests, err.Error(), errCodeRateLimited)
	case errors.Is(err, ports.ErrRequestFailed), errors.Is(err, ports.ErrTokenUnavailable), errors.Is(err, domain.ErrJoinMismatch):
		h.logger.Warn("upstream failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeErrorWithCode(w, http.StatusBadGateway, err.Error(), errCodeUpstream)
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}
