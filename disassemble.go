package md2docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-md2docx/internal/ooxml"
)

// docxDisassembler extracts Markdown text and metadata from an existing
// word-processing document.
type docxDisassembler interface {
	Disassemble(ctx context.Context, data []byte) (Document, error)
}

type ooxmlDisassembler struct{}

func newOOXMLDisassembler() *ooxmlDisassembler {
	return &ooxmlDisassembler{}
}

// Disassemble walks the document's paragraphs in order, then its tables,
// and emits Markdown plus the core-property metadata. Tables land after
// all paragraph text; the underlying document model exposes them as a
// separate sequence, so original interleaving is not recoverable.
func (d *ooxmlDisassembler) Disassemble(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	r, err := ooxml.Read(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
	}

	var lines []string
	for _, p := range r.Paragraphs() {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			lines = append(lines, "")
			continue
		}
		switch level := headingLevel(p.StyleName); {
		case level > 0:
			lines = append(lines, strings.Repeat("#", level)+" "+text)
		case p.Centered:
			lines = append(lines, "<center>"+text+"</center>")
		default:
			lines = append(lines, text)
		}
	}

	for _, table := range r.Tables() {
		lines = append(lines, "")
		if len(table.Rows) > 0 {
			lines = append(lines, tableLines(table)...)
		}
		lines = append(lines, "")
	}

	return Document{
		Body: strings.Join(lines, "\n"),
		Meta: extractMeta(r.Properties()),
	}, nil
}

// headingLevel maps a paragraph style name to a Markdown heading level,
// or 0 for non-headings. The built-in Title style counts as level 1.
// Matching is case-insensitive and tolerates both spaced display names
// ("Heading 2") and packed style IDs ("Heading2").
func headingLevel(styleName string) int {
	if strings.EqualFold(styleName, "Title") {
		return 1
	}
	name := strings.ToLower(styleName)
	for level := 1; level <= 4; level++ {
		spaced := fmt.Sprintf("heading %d", level)
		packed := fmt.Sprintf("heading%d", level)
		if strings.Contains(name, spaced) || strings.Contains(name, packed) {
			return level
		}
	}
	return 0
}

// tableLines renders one table as a Markdown pipe table: first row as the
// header, a dash separator sized to the header width, then data rows.
func tableLines(table ooxml.ParsedTable) []string {
	out := make([]string, 0, len(table.Rows)+1)
	header := table.Rows[0]
	out = append(out, pipeRow(header))
	dashes := make([]string, len(header))
	for i := range dashes {
		dashes[i] = "---"
	}
	out = append(out, pipeRow(dashes))
	for _, row := range table.Rows[1:] {
		out = append(out, pipeRow(row))
	}
	return out
}

func pipeRow(cells []string) string {
	trimmed := make([]string, len(cells))
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
	}
	return "| " + strings.Join(trimmed, " | ") + " |"
}

// extractMeta maps core properties into metadata, skipping unset ones.
func extractMeta(props ooxml.CoreProperties) Meta {
	var meta Meta
	meta.Title = props.Title
	meta.Author = props.Creator
	if !props.Created.IsZero() {
		meta.Date = props.Created.Format("2006-01-02")
	}
	if !props.Modified.IsZero() {
		meta.Modified = props.Modified.Format("2006-01-02")
	}
	return meta
}

// Compile-time interface check.
var _ docxDisassembler = (*ooxmlDisassembler)(nil)
