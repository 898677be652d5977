package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hostdash/hostdash/pkg/errclass"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}

// writeError maps err to its HTTP status. Unclassified errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Code: errclass.ErrInvalidArgument.Code})
		return
	}
	status := errclass.HTTPStatus(err)
	code := errclass.Code(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.ErrorErr("request failed", err, map[string]any{"path": r.URL.Path})
		if code == "" {
			code = errclass.ErrIO.Code
		}
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
