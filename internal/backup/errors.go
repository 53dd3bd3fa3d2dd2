package backup

import "errors"

// Sentinel errors for archive operations.
var (
	ErrInvalidDir     = errors.New("backup directory is not usable")
	ErrInvalidSource  = errors.New("backup source is not usable")
	ErrInvalidArchive = errors.New("archive is not a valid backup")
	ErrExistingData   = errors.New("restore target already exists")
)
