package blobserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type httpError struct {
	Code    int
	Message string
}

func (e *httpError) Error() string { return e.Message }

func errBadRequest(msg string) error { return &httpError{Code: http.StatusBadRequest, Message: msg} }
func errNotFound() error { return &httpError{Code: http.StatusNotFound, Message: "blob not found"} }
func errTooLarge() error { return &httpError{Code: http.StatusRequestEntityTooLarge, Message: "blob too large"} }

type appHandler func(w http.ResponseWriter, r *http.Request) error

// handle adapts an appHandler, turning returned errors into JSON error
// bodies. Unknown errors become 500s and are logged.
func (s *Server) handle(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var herr *httpError
		if !errors.As(err, &herr) {
			s.logger.Error("blob handler failed", "method", r.Method, "path", r.URL.Path, "error", err)
			herr = &httpError{Code: http.StatusInternalServerError, Message: "internal server error"}
		}
		writeJSON(w, herr.Code, map[string]string{"error": herr.Message})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
