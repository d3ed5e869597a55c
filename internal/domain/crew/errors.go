package crew

import "errors"

var (
	// ErrInvalidInput is returned for empty required fields and malformed identifiers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a referenced request, member or vehicle does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResolved is returned when a registration request is accepted or rejected twice.
	ErrAlreadyResolved = errors.New("registration already resolved")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
)
