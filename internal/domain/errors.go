package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotOwner        = errors.New("not owner")
	ErrAlreadyActive   = errors.New("session already active")
	ErrAlreadyEnded    = errors.New("session already ended")
	ErrNotPaused       = errors.New("session not paused")
	ErrSessionTooShort = errors.New("session too short")
	ErrPaymentFailed   = errors.New("payment verification failed")
	ErrProviderFailure = errors.New("provider failure")
)
