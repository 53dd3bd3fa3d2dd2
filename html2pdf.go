package md2docx

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2docx/internal/fileutil"
)

// PDF page geometry in inches: A4 with 2 cm margins on every side,
// matching the @page rule of the built-in style.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	pdfMarginInches   = 2.0 / 2.54
)

// filePDFRenderer abstracts rendering from an HTML file, enabling tests
// without a browser.
type filePDFRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// ChromeRenderer renders HTML pages to PDF with headless Chrome via
// go-rod. Rod downloads Chromium on first run when no browser is found;
// set ROD_BROWSER_BIN to use a pre-installed one. The browser starts
// lazily on the first render and lives until Close.
type ChromeRenderer struct {
	backend filePDFRenderer
}

// NewChromeRenderer creates a ChromeRenderer. The timeout bounds a single
// page load; non-positive values fall back to the default.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChromeRenderer{backend: &chromeBackend{timeout: timeout}}
}

// RenderPDF writes the page to a temporary file and renders it through
// the browser backend.
func (c *ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return c.backend.RenderFromFile(ctx, tmpPath)
}

// Close releases the browser.
func (c *ChromeRenderer) Close() error {
	return c.backend.Close()
}

// chromeBackend owns the rod browser. The mutex guards lazy connection
// and shutdown; page rendering itself is safe on a shared browser.
type chromeBackend struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// ensureBrowser lazily launches and connects to the browser.
func (b *chromeBackend) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New()

	// Use a pre-installed browser if specified (containerized environments).
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.browser = browser
	b.launcher = l
	return browser, nil
}

// Close disconnects from the browser and kills the launched process so a
// hung Chrome cannot outlive the service.
func (b *chromeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil

	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// RenderFromFile opens a local HTML file in the browser and prints it to
// PDF. Returns explicit errors instead of panicking when browser
// operations fail.
func (b *chromeBackend) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := b.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// The context deadline wins over the configured timeout when tighter.
	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(pdfMarginInches),
		MarginBottom:    floatPtr(pdfMarginInches),
		MarginLeft:      floatPtr(pdfMarginInches),
		MarginRight:     floatPtr(pdfMarginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// Compile-time interface checks.
var (
	_ PDFRenderer     = (*ChromeRenderer)(nil)
	_ filePDFRenderer = (*chromeBackend)(nil)
)
