package main

import (
	"errors"
	"os"

	"github.com/alnah/go-md2docx/internal/backup"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/dateutil"
	"github.com/alnah/go-md2docx/internal/history"
	"github.com/alnah/go-md2docx/internal/store"
)

// Exit codes for the docserv CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, 3=I/O.
const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitUsage   = 2
	ExitIO      = 3
)

// Sentinel errors for command dispatch.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrHistoryDisabled = errors.New("version history is disabled in the config")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, history.ErrVersionNotFound) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, store.ErrInvalidPath) ||
		errors.Is(err, store.ErrInvalidRoot) ||
		errors.Is(err, history.ErrInvalidDir) ||
		errors.Is(err, history.ErrInvalidPath) ||
		errors.Is(err, backup.ErrInvalidDir) ||
		errors.Is(err, backup.ErrInvalidSource) ||
		errors.Is(err, backup.ErrInvalidArchive) ||
		errors.Is(err, backup.ErrExistingData) ||
		errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrHistoryDisabled) {
		return ExitUsage
	}

	return ExitGeneral
}
