package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

// SearchEvents finds live events in a city. Genres come from repeated or
// comma separated genre parameters, or from the recommendations of the
// analysis parameter when none are given.
func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q, err := parseEventQuery(values)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidQuery)
		return
	}

	page, err := h.recommender.FindEvents(r.Context(), q, values.Get("analysis"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if page.Events == nil {
		page.Events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, page)
}

func parseEventQuery(values url.Values) (domain.EventQuery, error) {
	q := domain.EventQuery{City: strings.TrimSpace(values.Get("city"))}

	var err error
	if q.Start, err = parseDate(values.Get("start"), "start"); err != nil {
		return q, err
	}
	if q.End, err = parseDate(values.Get("end"), "end"); err != nil {
		return q, err
	}

	for _, raw := range values["genre"] {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				q.Genres = append(q.Genres, g)
			}
		}
	}
	return q, q.Validate()
}

func parseDate(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s date is required", domain.ErrInvalidQuery, name)
	}
	t, err := time.Parse(domain.EventDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s date must be YYYY-MM-DD", domain.ErrInvalidQuery, name)
	}
	return t, nil
}
