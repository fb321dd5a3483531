package errors

import (
	stderrors "errors"
	"net/http"
)

// MapToHTTPStatus translates domain sentinels into HTTP status codes at the
// API boundary. Anything unmapped is an internal error.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrUserAlreadyExists),
		stderrors.Is(err, ErrMissingFields),
		stderrors.Is(err, ErrInvalidPassword),
		stderrors.Is(err, ErrInvalidAvatar):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrInvalidCredentials),
		stderrors.Is(err, ErrNotAuthorized):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
