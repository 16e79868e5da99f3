package model

import "errors"

// Error taxonomy shared by the store, the reservation manager and the
// fanout registry. Callers match with errors.Is.
var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalid               = errors.New("invalid argument")
	ErrInternal              = errors.New("internal error")
)
