package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid screen transition")

	// Pipeline failures. Each is converted to a user-visible message at the
	// handler boundary.
	ErrConfiguration    = errors.New("service not configured")
	ErrDecode           = errors.New("unsupported or corrupt audio")
	ErrEncode           = errors.New("audio encoding failed")
	ErrRemoteProcessing = errors.New("remote processing failed")
	ErrPersistence      = errors.New("persistence failed")
	ErrNotification     = errors.New("notification failed")
)
