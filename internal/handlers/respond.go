package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/HammerMeetNail/odinbook/internal/logging"
	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/services"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse echoes the submitted payload next to the field errors.
type ValidationErrorResponse struct {
	Friendship any                   `json:"friendship,omitempty"`
	Account    any                   `json:"account,omitempty"`
	Errors     []services.FieldError `json:"errors"`
}

// Pagination is embedded in every list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"total_count"`
	PageCount  int  `json:"page_count"`
	HasMore    bool `json:"has_more"`
}

func newPagination(page models.Page, total int) Pagination {
	return Pagination{
		Page:       page.Number,
		Limit:      page.Limit,
		TotalCount: total,
		PageCount:  page.PageCount(total),
		HasMore:    page.HasMore(total),
	}
}

// parsePage reads ?page= and ?limit=; missing or malformed values fall back
// to the defaults.
func parsePage(r *http.Request) models.Page {
	query := r.URL.Query()
	number, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return models.NewPage(number, limit)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors onto HTTP statuses. payload is echoed
// back on validation failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, payload ValidationErrorResponse) {
	var (
		verr *services.ValidationError
		nerr *services.NotFoundError
		ferr *services.ForbiddenError
		cerr *services.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		payload.Errors = verr.Errors
		writeJSON(w, http.StatusUnprocessableEntity, payload)
	case errors.As(err, &nerr):
		writeError(w, http.StatusNotFound, nerr.Message)
	case errors.As(err, &ferr):
		writeError(w, http.StatusForbidden, ferr.Message)
	case errors.As(err, &cerr):
		writeError(w, http.StatusBadRequest, cerr.Message)
	default:
		logging.Error("Request failed", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
