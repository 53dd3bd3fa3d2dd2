package store

import "errors"

// Sentinel errors for document tree operations.
var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("path escapes the document root")
	ErrInvalidRoot = errors.New("document root is not usable")
)
