package md2docx

import (
	"context"
	"time"
)

// Meta holds the document properties recognized by the pipeline.
// All fields are optional; absent fields are omitted from output,
// never rendered as empty strings.
type Meta struct {
	Title        string `yaml:"title,omitempty" json:"title,omitempty"`
	Author       string `yaml:"author,omitempty" json:"author,omitempty"`
	Organization string `yaml:"organization,omitempty" json:"organization,omitempty"`
	Department   string `yaml:"department,omitempty" json:"department,omitempty"`
	Type         string `yaml:"type,omitempty" json:"type,omitempty"`
	Number       string `yaml:"number,omitempty" json:"number,omitempty"`
	Date         string `yaml:"date,omitempty" json:"date,omitempty"`
	Status       string `yaml:"status,omitempty" json:"status,omitempty"`
	Created      string `yaml:"created,omitempty" json:"created,omitempty"`
	Modified     string `yaml:"modified,omitempty" json:"modified,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Meta) IsZero() bool {
	return m == Meta{}
}

// HasTechnicalData reports whether any field of the technical-data
// block (organization, department, type, number, date, status) is set.
func (m Meta) HasTechnicalData() bool {
	return m.Organization != "" || m.Department != "" || m.Type != "" ||
		m.Number != "" || m.Date != "" || m.Status != ""
}

// DisplayTitle returns the title to show on rendered pages:
// the title if set, else the document number, else "Документ".
func (m Meta) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	if m.Number != "" {
		return m.Number
	}
	return "Документ"
}

// Document pairs a Markdown body with its metadata. Approval carries the
// lines of an "УТВЕРЖДАЮ" block when the caller extracted one from the
// source; rendered pages show it in the top-right corner.
type Document struct {
	Body     string
	Meta     Meta
	Approval []string
}

// PDFRenderer turns a complete HTML page into PDF bytes. The service has
// no renderer by default; attach one with WithPDFRenderer. Implementations
// own their browser or process lifecycle, released by Close.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, htmlContent string) ([]byte, error)
	Close() error
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout       time.Duration
	technicalData bool
	frontMatter   bool
	style         string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2docx: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithTechnicalData controls whether DOCX output starts with the
// technical-data block and whether rendered pages show the metadata
// table. Enabled by default.
func WithTechnicalData(enabled bool) Option {
	return func(s *Service) {
		s.cfg.technicalData = enabled
	}
}

// WithFrontMatter controls whether EncodeDocument prepends a YAML
// front matter block to documents produced by FromDOCX.
// Enabled by default.
func WithFrontMatter(enabled bool) Option {
	return func(s *Service) {
		s.cfg.frontMatter = enabled
	}
}

// WithStyle selects the CSS style used for rendered pages.
// The name refers to a style in internal/assets/styles/ or in the
// configured custom asset directory.
func WithStyle(name string) Option {
	return func(s *Service) {
		s.cfg.style = name
	}
}

// WithAssetLoader sets a custom asset loader for page templates and CSS
// styles. Use NewAssetLoader for filesystem loading with embedded
// fallback, or provide any AssetLoader implementation.
func WithAssetLoader(loader AssetLoader) Option {
	return func(s *Service) {
		s.assets = loader
	}
}

// WithPDFRenderer attaches a PDF rendering capability to the service.
// Without one, ToPDF returns ErrPDFUnavailable.
func WithPDFRenderer(r PDFRenderer) Option {
	return func(s *Service) {
		s.pdf = r
	}
}
