package md2docx

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/alnah/go-md2docx/internal/frontmatter"
)

// docxMIME is the media type of a WordprocessingML document.
const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Service orchestrates the document conversion pipeline. A Service is
// stateless per call and safe for concurrent use.
type Service struct {
	cfg          serviceConfig
	preprocessor markdownPreprocessor
	converter    htmlConverter
	tokenizer    blockTokenizer
	assembler    docxAssembler
	disassembler docxDisassembler
	pages        pageBuilder
	assets       AssetLoader
	pdf          PDFRenderer
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithPDFRenderer).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:       defaultTimeout,
			technicalData: true,
			frontMatter:   true,
			style:         DefaultStyle,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.assets == nil {
		s.assets = defaultAssetLoader()
	}
	if s.cfg.style == "" {
		s.cfg.style = DefaultStyle
	}

	// Stages not replaced by an option get the default implementation.
	if s.preprocessor == nil {
		s.preprocessor = &commonMarkPreprocessor{}
	}
	if s.converter == nil {
		s.converter = newGoldmarkConverter()
	}
	if s.tokenizer == nil {
		s.tokenizer = &streamTokenizer{}
	}
	if s.assembler == nil {
		s.assembler = newOOXMLAssembler(s.cfg.technicalData)
	}
	if s.disassembler == nil {
		s.disassembler = newOOXMLDisassembler()
	}
	if s.pages == nil {
		s.pages = newTemplatePageBuilder(s.assets, s.cfg.style, s.cfg.technicalData)
	}

	return s
}

// ToHTML converts the document body to an HTML fragment: preprocessing,
// CommonMark rendering, then list repair. Metadata is not rendered; use
// ToPage for a complete page.
func (s *Service) ToHTML(ctx context.Context, doc Document) (string, error) {
	if err := s.validateDocument(doc); err != nil {
		return "", err
	}
	ctx, cancel := s.conversionContext(ctx)
	defer cancel()
	return s.renderBody(ctx, doc.Body)
}

// ToPage converts the document to a complete HTML page with the page
// template, CSS style, metadata header table, and approval block.
func (s *Service) ToPage(ctx context.Context, doc Document) (string, error) {
	if err := s.validateDocument(doc); err != nil {
		return "", err
	}
	ctx, cancel := s.conversionContext(ctx)
	defer cancel()

	body, err := s.renderBody(ctx, doc.Body)
	if err != nil {
		return "", err
	}
	return s.pages.BuildPage(ctx, body, doc)
}

// ToDOCX converts the document to a Word file: the body runs through the
// HTML stage and the block tokenizer, then the assembler writes document
// properties, the title heading, the optional technical-data block, and
// the content blocks.
func (s *Service) ToDOCX(ctx context.Context, doc Document) ([]byte, error) {
	if err := s.validateDocument(doc); err != nil {
		return nil, err
	}
	ctx, cancel := s.conversionContext(ctx)
	defer cancel()

	htmlContent, err := s.renderBody(ctx, doc.Body)
	if err != nil {
		return nil, err
	}

	blocks, err := s.tokenizer.Tokenize(ctx, htmlContent)
	if err != nil {
		return nil, err
	}

	return s.assembler.Assemble(ctx, blocks, doc.Meta)
}

// FromDOCX extracts Markdown and metadata from a Word file. Returns
// ErrUnsupportedInput when the data is not a readable Word document.
func (s *Service) FromDOCX(ctx context.Context, data []byte) (Document, error) {
	ctx, cancel := s.conversionContext(ctx)
	defer cancel()

	mtype := mimetype.Detect(data)
	if !mtype.Is(docxMIME) && !mtype.Is("application/zip") {
		return Document{}, fmt.Errorf("%w: detected %s", ErrUnsupportedInput, mtype.String())
	}

	return s.disassembler.Disassemble(ctx, data)
}

// EncodeDocument serializes a document to Markdown text. When front
// matter is enabled and metadata is present, a ---delimited YAML block is
// prepended; otherwise the body is returned as is.
func (s *Service) EncodeDocument(doc Document) (string, error) {
	if !s.cfg.frontMatter || doc.Meta.IsZero() {
		return doc.Body, nil
	}
	return frontmatter.Render(doc.Meta, doc.Body)
}

// DecodeDocument parses Markdown text into a Document, splitting a
// leading YAML front matter block into metadata when present. The
// inverse of EncodeDocument.
func DecodeDocument(content string) (Document, error) {
	var meta Meta
	body, err := frontmatter.Parse(normalizeLineEndings(content), &meta)
	if err != nil {
		return Document{}, fmt.Errorf("parsing front matter: %w", err)
	}
	return Document{Body: body, Meta: meta}, nil
}

// ToPDF renders the document's HTML page to PDF through the attached
// renderer. Returns ErrPDFUnavailable when no renderer is configured.
func (s *Service) ToPDF(ctx context.Context, doc Document) ([]byte, error) {
	if s.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	if err := s.validateDocument(doc); err != nil {
		return nil, err
	}
	ctx, cancel := s.conversionContext(ctx)
	defer cancel()

	body, err := s.renderBody(ctx, doc.Body)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.BuildPage(ctx, body, doc)
	if err != nil {
		return nil, err
	}

	return s.pdf.RenderPDF(ctx, page)
}

// Close releases resources held by the attached PDF renderer, if any.
func (s *Service) Close() error {
	if s.pdf != nil {
		return s.pdf.Close()
	}
	return nil
}

// renderBody runs the Markdown-to-HTML stages shared by every output
// format: preprocessing, CommonMark rendering, list repair.
func (s *Service) renderBody(ctx context.Context, markdown string) (string, error) {
	content := s.preprocessor.PreprocessMarkdown(ctx, markdown)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	htmlContent, err := s.converter.ToHTML(ctx, content)
	if err != nil {
		return "", err
	}

	return repairLists(htmlContent), nil
}

// validateDocument checks that the document carries content to convert.
func (s *Service) validateDocument(doc Document) error {
	if doc.Body == "" {
		return ErrEmptyMarkdown
	}
	return nil
}

// conversionContext bounds one conversion with the configured timeout.
func (s *Service) conversionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.timeout)
}
