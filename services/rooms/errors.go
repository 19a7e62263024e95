package rooms

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("room not found")
	ErrInactive          = errors.New("room is not active")
	ErrInvalidCredential = errors.New("invalid password")
	// ErrDuplicateID is retried by CreateWithFreshCode and never reaches callers of the Coordinator
	ErrDuplicateID = errors.New("room code already exists")
)
