package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalid        = errors.New("invalid input")
	ErrEmpty          = errors.New("no data")
	ErrImportRejected = errors.New("import rejected")
)
