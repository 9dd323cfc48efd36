package models

import "errors"

// Error taxonomy shared by the store and the transport layer. Callers wrap
// these with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)
