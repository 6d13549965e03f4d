// Package httputil maps handler errors onto JSON responses.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/sympol2d/internal/monitoring"
)

// StatusError is an error that already knows its HTTP status.
type StatusError struct {
	Status int
	Msg    string
}

func (e *StatusError) Error() string { return e.Msg }

// Errorf builds a *StatusError.
func Errorf(status int, format string, args ...interface{}) error {
	return &StatusError{Status: status, Msg: fmt.Sprintf(format, args...)}
}

// StatusRule answers errors matching Target (via errors.Is) with Status.
// Msg replaces the error text when set.
type StatusRule struct {
	Target error
	Status int
	Msg    string
}

// StatusOf resolves err to a status and message. A *StatusError anywhere
// in the chain wins, then the first matching rule; anything else is a 500.
func StatusOf(err error, rules ...StatusRule) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, se.Msg
	}
	for _, r := range rules {
		if errors.Is(err, r.Target) {
			if r.Msg != "" {
				return r.Status, r.Msg
			}
			return r.Status, err.Error()
		}
	}
	return http.StatusInternalServerError, err.Error()
}

// WriteError writes {"error": msg} with the status StatusOf picks.
func WriteError(w http.ResponseWriter, err error, rules ...StatusRule) {
	status, msg := StatusOf(err, rules...)
	if status >= http.StatusInternalServerError {
		monitoring.Warnf("http %d: %v", status, err)
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Warnf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes data with 200 OK.
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, Errorf(http.StatusMethodNotAllowed, "method not allowed"))
}

// QueryInt parses the integer query parameter name, returning def when it
// is absent. A malformed value is a 400 *StatusError.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, Errorf(http.StatusBadRequest, "invalid %s %q: must be an integer", name, raw)
	}
	return v, nil
}
