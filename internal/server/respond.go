package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/observability"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status via its error code and writes it as JSON.
// Errors without a code are internal.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)

	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	observability.HTTP().OnError(r.Context(), r.Method, route, string(code))

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "route", route, "error", err)
	}
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: msg})
}
