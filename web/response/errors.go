package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/xcono/relfilter/filter"
)

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message, details string, hint interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := Response{
		Error:   message,
		Code:    fmt.Sprintf("RF%d", statusCode),
		Details: details,
		Hint:    hint,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message, details string) {
	WriteError(w, http.StatusNotFound, message, details, nil)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error
func WriteMethodNotAllowed(w http.ResponseWriter, method string) {
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed",
		fmt.Sprintf("Method %s not supported", method), nil)
}

// WriteDatabaseError writes a database-related error
func WriteDatabaseError(w http.ResponseWriter, operation string, err error) {
	WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Database %s failed", operation), err.Error(), nil)
}

// FilterHint is the structured reason of a rejected filter
type FilterHint struct {
	Kind     string `json:"kind"`
	Path     string `json:"path,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// WriteFilterError writes a 400 for a filter that failed to compile
func WriteFilterError(w http.ResponseWriter, err *filter.Error) {
	WriteError(w, http.StatusBadRequest, "Invalid filter", err.Error(), FilterHint{
		Kind:     err.KindName(),
		Path:     strings.Join(err.Path, "."),
		Operator: err.Operator,
	})
}
