package domain

import "errors"

var (
	// ErrNotFound indicates that a requested entity or stored key was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden indicates that the current user may not perform the action.
	ErrForbidden = errors.New("action forbidden")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrUnauthenticated indicates that the action needs a logged-in session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrReviewAlreadyExists indicates that the booking has already been reviewed.
	ErrReviewAlreadyExists = errors.New("review already exists for this booking")
)

// ValidationError is a client-side precondition failure. Message is the
// fixed, user-facing text.
type ValidationError struct {
	Message string
	Kind    error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

// Invalid builds a ValidationError of kind ErrInvalidInput.
func Invalid(message string) *ValidationError {
	return &ValidationError{Message: message, Kind: ErrInvalidInput}
}

// Rejected builds a ValidationError of the given kind.
func Rejected(kind error, message string) *ValidationError {
	return &ValidationError{Message: message, Kind: kind}
}
