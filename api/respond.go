package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"realty_backoffice/errs"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondWithJSON sends payload as a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}

// writeJSONError sends {"error": message} with the given status
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// writeError maps err onto a status and message. Outside production the error kind and
// the full error chain are included for the admin console.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	resp := errorResponse{Error: http.StatusText(status)}

	var e *errs.Error
	if errors.As(err, &e) {
		resp.Error = e.Message
	}
	if status >= http.StatusInternalServerError {
		log.Printf("API: %s %s: %v", r.Method, r.URL.Path, err)
	}
	if !s.production {
		resp.Code = string(errs.KindOf(err))
		resp.Details = err.Error()
	}

	respondWithJSON(w, status, resp)
}
