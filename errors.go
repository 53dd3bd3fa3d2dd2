package md2docx

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrHTMLConversion = errors.New("HTML conversion failed")

	// DOCX errors.
	ErrUnsupportedInput = errors.New("not a supported Word document")
	ErrDocxAssembly     = errors.New("DOCX assembly failed")

	// Page rendering errors.
	ErrPageRender = errors.New("page rendering failed")

	// PDF errors.
	ErrPDFUnavailable = errors.New("no PDF renderer configured")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
