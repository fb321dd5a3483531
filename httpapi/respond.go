package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"chat-server/auth"
	"chat-server/errors"
)

type errorResponse struct {
	Message string `json:"message"`
}

// errHandled signals that a handler already wrote its own response.
var errHandled = stderrors.New("response already written")

// withRequester resolves the authenticated user, runs the handler body and
// writes either its JSON result or the mapped error.
func (s *Server) withRequester(w http.ResponseWriter, r *http.Request, fn func(requesterID string) (any, error)) {
	requesterID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "missing identity"})
		return
	}

	body, err := fn(requesterID)
	if err != nil {
		if stderrors.Is(err, errHandled) {
			return
		}
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto a structured HTTP error response.
// Internal errors are logged with detail but answered generically.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errors.MapToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Message: message})
}

// decode reads a JSON request body into dst, rejecting unknown garbage
// early with a bad request.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return false
	}
	return true
}
