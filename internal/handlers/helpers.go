package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/insightx/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// StatusForError maps the error taxonomy onto HTTP status codes. Input and
// upload problems are the caller's fault; everything else is ours.
func StatusForError(err error) int {
	var (
		noData   *models.NoDataFoundError
		history  *models.InsufficientHistoryError
		invalid  *models.InvalidSeriesError
		schema   *models.SchemaError
		negative *models.NegativeValueError
		parse    *models.ParseError
		format   *models.FormatError
	)

	switch {
	case models.IsNotFound(err), errors.As(err, &noData):
		return http.StatusNotFound
	case errors.As(err, &history), errors.As(err, &invalid),
		errors.As(err, &schema), errors.As(err, &negative),
		errors.As(err, &parse):
		return http.StatusBadRequest
	case errors.As(err, &format):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
