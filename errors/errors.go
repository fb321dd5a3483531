package errors

import "fmt"

var (
	ErrUserAlreadyExists    = fmt.Errorf("user already exists")
	ErrInvalidCredentials   = fmt.Errorf("invalid email or password")
	ErrInvalidPassword      = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration      = fmt.Errorf("token generation failed")
	ErrMissingSigningSecret = fmt.Errorf("jwt signing secret is not configured")
	ErrNotAuthorized        = fmt.Errorf("not authorized, token failed")
	ErrMissingFields        = fmt.Errorf("please enter all the fields")
	ErrNotFound             = fmt.Errorf("resource not found")
	ErrNotParticipant       = fmt.Errorf("user is not a participant of this chat")
	ErrInvalidAvatar        = fmt.Errorf("avatar must be an image")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)
