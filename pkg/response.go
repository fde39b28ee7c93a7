package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akinalp/cordlite/pkg/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// sentinels is ordered by precedence for status mapping.
var sentinels = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrTooManyRequests, http.StatusTooManyRequests},
}

// JSON writes data as the response body with the given status.
// Responses are plain objects; callers choose the field names.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Warnw("[http] failed to encode response", "error", err)
	}
}

// Error writes a domain error. The status comes from the wrapped sentinel and
// the message is the detail after it, so
// fmt.Errorf("%w: Access denied", ErrForbidden) becomes 403 {"error":"Access denied"}.
// Anything that does not wrap a known sentinel is a 500 and its text is logged,
// never sent.
func Error(w http.ResponseWriter, err error) {
	status, message := describe(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("[http] internal error", "error", err)
	}
	ErrorWithMessage(w, status, message)
}

// ErrorWithMessage writes an error response with an explicit status and message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// StatusFor returns the HTTP status an error maps to.
func StatusFor(err error) int {
	status, _ := describe(err)
	return status
}

func describe(err error) (int, string) {
	for _, s := range sentinels {
		if !errors.Is(err, s.err) {
			continue
		}
		msg := err.Error()
		prefix := s.err.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			return s.status, msg[i+len(prefix):]
		}
		return s.status, msg
	}
	return http.StatusInternalServerError, "internal server error"
}
