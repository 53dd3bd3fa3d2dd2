package history

import "errors"

// Sentinel errors for version tracking.
var (
	ErrInvalidDir      = errors.New("history directory is not usable")
	ErrInvalidPath     = errors.New("path escapes the document tree")
	ErrVersionNotFound = errors.New("version not found")
)
