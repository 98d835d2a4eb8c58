package errors

import "errors"

var (
	// requested entity does not exist in the catalog.
	ErrMissing = errors.New("missing")

	// more entities were found than the operation allows.
	ErrTooMuch = errors.New("too much")

	// a commit violated a unique-key, foreign-key or check constraint.
	ErrConflict = errors.New("conflict")

	// another session holds the "currently processing" guard.
	ErrLocked = errors.New("locked")
)
