// Package md2docx converts Markdown documents to Word (DOCX) files,
// styled HTML pages, and PDF, and reads DOCX files back into Markdown.
//
// # Quick Start
//
// Create a service, convert a document, and close when done:
//
//	svc := md2docx.New()
//	defer svc.Close()
//
//	data, err := svc.ToDOCX(ctx, md2docx.Document{
//	    Body: "# Hello\n\nWorld",
//	    Meta: md2docx.Meta{Title: "Greeting", Organization: "ACME"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.docx", data, 0644)
//
// The reverse direction recovers Markdown and metadata from a DOCX file:
//
//	doc, err := svc.FromDOCX(ctx, data)
//
// # Conversion Pipeline
//
// Markdown to DOCX follows these stages:
//
//  1. Markdown preprocessing (line normalization, ==highlight== syntax)
//  2. Markdown to HTML conversion via Goldmark (GFM, syntax highlighting)
//  3. List repair for label-plus-items paragraphs the renderer left flat
//  4. HTML tokenization into a typed block stream
//  5. Formatting-run reconstruction (bold/italic, damage recovery)
//  6. OOXML assembly (document.xml, styles, numbering, core properties)
//
// Malformed markup never aborts a conversion: corrupted formatting
// degrades to plain text, and visible text is always preserved.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := md2docx.New(
//	    md2docx.WithTimeout(2 * time.Minute),
//	    md2docx.WithStyle("default"),
//	    md2docx.WithTechnicalData(false),
//	)
//
// # HTML and PDF
//
// ToPage renders a full styled HTML page with the document's metadata
// table; ToPDF renders that page through a PDFRenderer. No renderer is
// configured unless one is injected:
//
//	svc := md2docx.New(md2docx.WithPDFRenderer(md2docx.NewChromeRenderer(0)))
//	pdf, err := svc.ToPDF(ctx, doc)
//
// Without an injected renderer ToPDF returns ErrPDFUnavailable.
//
// # Parallel Processing
//
// For batch conversion, use ServicePool to bound concurrent conversions:
//
//	pool := md2docx.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//
// # Custom Assets
//
// Override the built-in page style and template using AssetLoader:
//
//	loader, err := md2docx.NewAssetLoader("/path/to/assets")
//	svc := md2docx.New(md2docx.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── default.css
//	└── templates/
//	    └── page.html
package md2docx
