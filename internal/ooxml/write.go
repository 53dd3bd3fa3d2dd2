// Package ooxml builds and parses word-processing documents in the Office
// Open XML container format. The writer assembles a minimal package from
// embedded static parts plus a generated body and core properties; the
// reader extracts paragraphs, tables, and metadata from existing files.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	nsMain       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsCoreProps  = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDublinCore = "http://purl.org/dc/elements/1.1/"
	nsDCTerms    = "http://purl.org/dc/terms/"
	nsXSI        = "http://www.w3.org/2001/XMLSchema-instance"
)

// A4 page geometry in twentieths of a point.
const (
	pageWidth    = 11906
	pageHeight   = 16838
	pageMargin   = 1134
	headerMargin = 709
	contentWidth = pageWidth - 2*pageMargin
)

// Style IDs defined by the embedded styles part.
const (
	StyleNormal     = "Normal"
	StyleTitle      = "Title"
	StyleListBullet = "ListBullet"
	StyleListNumber = "ListNumber"
	StyleTableGrid  = "TableGrid"
)

// Numbering definitions provided by the embedded numbering part.
const (
	NumBullet  = 1
	NumDecimal = 2
)

// maxListLevel is the deepest indentation level the numbering part defines.
const maxListLevel = 2

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const w3cdtfLayout = "2006-01-02T15:04:05Z"

// HeadingStyle returns the style ID for a heading level. Levels outside
// 1..4 clamp to the nearest bound.
func HeadingStyle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return fmt.Sprintf("Heading%d", level)
}

// Document is a word-processing document under construction. Body content
// is appended in order through AddParagraph and AddTable, then serialized
// with Bytes or WriteTo.
type Document struct {
	title    string
	creator  string
	created  time.Time
	modified time.Time
	items    []any
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// SetTitle sets the document title core property.
func (d *Document) SetTitle(title string) { d.title = title }

// SetCreator sets the document author core property.
func (d *Document) SetCreator(name string) { d.creator = name }

// SetCreated sets the creation date core property.
func (d *Document) SetCreated(t time.Time) { d.created = t }

// SetModified sets the modification date core property. When unset, the
// creation date is reused.
func (d *Document) SetModified(t time.Time) { d.modified = t }

// AddParagraph appends a paragraph using the named style. An empty style
// name uses the document default.
func (d *Document) AddParagraph(style string) *Paragraph {
	p := &Paragraph{}
	if style != "" {
		p.props().Style = &valAttr{Val: style}
	}
	d.items = append(d.items, p)
	return p
}

// AddEmptyParagraph appends a paragraph with no runs. It renders as a
// blank line.
func (d *Document) AddEmptyParagraph() {
	d.AddParagraph("")
}

// AddTable appends a table with cols columns spread evenly across the
// text width. cols must be at least 1.
func (d *Document) AddTable(cols int) *Table {
	t := &Table{
		Props: tableProps{
			Style: &valAttr{Val: StyleTableGrid},
			Width: &tableWidth{W: contentWidth, Type: "dxa"},
		},
		cols: cols,
	}
	for i := 0; i < cols; i++ {
		t.Grid.Cols = append(t.Grid.Cols, gridCol{W: contentWidth / cols})
	}
	d.items = append(d.items, t)
	return t
}

// Paragraph is a body or table-cell paragraph.
type Paragraph struct {
	XMLName xml.Name        `xml:"w:p"`
	Props   *paragraphProps `xml:"w:pPr,omitempty"`
	Runs    []*Run          `xml:"w:r"`
}

type paragraphProps struct {
	Style         *valAttr      `xml:"w:pStyle,omitempty"`
	Numbering     *numberingRef `xml:"w:numPr,omitempty"`
	Justification *valAttr      `xml:"w:jc,omitempty"`
}

type numberingRef struct {
	Level intAttr `xml:"w:ilvl"`
	NumID intAttr `xml:"w:numId"`
}

type valAttr struct {
	Val string `xml:"w:val,attr"`
}

type intAttr struct {
	Val int `xml:"w:val,attr"`
}

func (p *Paragraph) props() *paragraphProps {
	if p.Props == nil {
		p.Props = &paragraphProps{}
	}
	return p.Props
}

// AddRun appends a text run with the given format flags. Newlines in text
// become explicit line breaks within the paragraph.
func (p *Paragraph) AddRun(text string, bold, italic bool) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			p.Runs = append(p.Runs, &Run{Break: &toggle{}})
		}
		if line == "" {
			continue
		}
		r := &Run{Text: newRunText(line)}
		if bold || italic {
			r.Props = &runProps{}
			if bold {
				r.Props.Bold = &toggle{}
			}
			if italic {
				r.Props.Italic = &toggle{}
			}
		}
		p.Runs = append(p.Runs, r)
	}
}

// SetJustification sets the paragraph alignment ("left", "center",
// "right", "both").
func (p *Paragraph) SetJustification(val string) {
	p.props().Justification = &valAttr{Val: val}
}

// SetNumbering attaches the paragraph to a numbering definition at the
// given indentation level. Levels deeper than the numbering part defines
// clamp to the deepest one.
func (p *Paragraph) SetNumbering(numID, level int) {
	if level < 0 {
		level = 0
	}
	if level > maxListLevel {
		level = maxListLevel
	}
	p.props().Numbering = &numberingRef{
		Level: intAttr{Val: level},
		NumID: intAttr{Val: numID},
	}
}

// Run is a text segment, or a line break when Break is set.
type Run struct {
	XMLName xml.Name  `xml:"w:r"`
	Props   *runProps `xml:"w:rPr,omitempty"`
	Break   *toggle   `xml:"w:br,omitempty"`
	Text    *runText  `xml:"w:t,omitempty"`
}

type runProps struct {
	Bold   *toggle `xml:"w:b,omitempty"`
	Italic *toggle `xml:"w:i,omitempty"`
}

// toggle marshals as an empty presence element.
type toggle struct{}

type runText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

func newRunText(s string) *runText {
	t := &runText{Value: s}
	// Word drops edge whitespace unless told to preserve it.
	if strings.TrimSpace(s) != s {
		t.Space = "preserve"
	}
	return t
}

// Table is a body table with a fixed column count.
type Table struct {
	XMLName xml.Name    `xml:"w:tbl"`
	Props   tableProps  `xml:"w:tblPr"`
	Grid    tableGrid   `xml:"w:tblGrid"`
	Rows    []*TableRow `xml:"w:tr"`

	cols int
}

type tableProps struct {
	Style *valAttr    `xml:"w:tblStyle,omitempty"`
	Width *tableWidth `xml:"w:tblW,omitempty"`
}

type tableWidth struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type tableGrid struct {
	Cols []gridCol `xml:"w:gridCol"`
}

type gridCol struct {
	W int `xml:"w:w,attr"`
}

// TableRow is a single table row.
type TableRow struct {
	XMLName xml.Name     `xml:"w:tr"`
	Cells   []*TableCell `xml:"w:tc"`
}

// TableCell is a single table cell holding one paragraph.
type TableCell struct {
	XMLName    xml.Name     `xml:"w:tc"`
	Props      *cellProps   `xml:"w:tcPr,omitempty"`
	Paragraphs []*Paragraph `xml:"w:p"`
}

type cellProps struct {
	Width *tableWidth `xml:"w:tcW,omitempty"`
}

// AddRow appends a row holding one empty cell per table column.
func (t *Table) AddRow() *TableRow {
	row := &TableRow{}
	for i := 0; i < t.cols; i++ {
		row.Cells = append(row.Cells, &TableCell{
			Props:      &cellProps{Width: &tableWidth{W: contentWidth / t.cols, Type: "dxa"}},
			Paragraphs: []*Paragraph{{}},
		})
	}
	t.Rows = append(t.Rows, row)
	return row
}

// SetCell fills the cell at the given column with a single run of text.
// Out-of-range columns are ignored.
func (r *TableRow) SetCell(col int, text string, bold bool) {
	if col < 0 || col >= len(r.Cells) {
		return
	}
	p := r.Cells[col].Paragraphs[0]
	p.Runs = nil
	p.AddRun(text, bold, false)
}

type docRoot struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    docBody  `xml:"w:body"`
}

type docBody struct {
	Items   []any
	Section sectionProps
}

// MarshalXML writes body items in insertion order followed by the section
// properties, which the schema requires last.
func (b docBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, item := range b.Items {
		if err := e.Encode(item); err != nil {
			return err
		}
	}
	if err := e.Encode(b.Section); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type sectionProps struct {
	XMLName xml.Name    `xml:"w:sectPr"`
	Size    pageSize    `xml:"w:pgSz"`
	Margins pageMargins `xml:"w:pgMar"`
}

type pageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type pageMargins struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type coreProperties struct {
	XMLName   xml.Name `xml:"cp:coreProperties"`
	NSCP      string   `xml:"xmlns:cp,attr"`
	NSDC      string   `xml:"xmlns:dc,attr"`
	NSDCTerms string   `xml:"xmlns:dcterms,attr"`
	NSXSI     string   `xml:"xmlns:xsi,attr"`
	Title     string   `xml:"dc:title,omitempty"`
	Creator   string   `xml:"dc:creator,omitempty"`
	Created   *w3cDate `xml:"dcterms:created,omitempty"`
	Modified  *w3cDate `xml:"dcterms:modified,omitempty"`
}

type w3cDate struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

// Bytes serializes the document as a complete container.
func (d *Document) Bytes() ([]byte, error) {
	body, err := d.documentPart()
	if err != nil {
		return nil, fmt.Errorf("marshaling document body: %w", err)
	}
	core, err := d.corePart()
	if err != nil {
		return nil, fmt.Errorf("marshaling core properties: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", partContentTypes},
		{"_rels/.rels", partPackageRels},
		{"docProps/core.xml", core},
		{"docProps/app.xml", partAppProps},
		{"word/document.xml", body},
		{"word/_rels/document.xml.rels", partDocumentRels},
		{"word/styles.xml", partStyles},
		{"word/numbering.xml", partNumbering},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the document into w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (d *Document) documentPart() ([]byte, error) {
	root := docRoot{
		NS: nsMain,
		Body: docBody{
			Items: d.items,
			Section: sectionProps{
				Size: pageSize{W: pageWidth, H: pageHeight},
				Margins: pageMargins{
					Top:    pageMargin,
					Right:  pageMargin,
					Bottom: pageMargin,
					Left:   pageMargin,
					Header: headerMargin,
					Footer: headerMargin,
				},
			},
		},
	}
	return marshalPart(root)
}

func (d *Document) corePart() ([]byte, error) {
	props := coreProperties{
		NSCP:      nsCoreProps,
		NSDC:      nsDublinCore,
		NSDCTerms: nsDCTerms,
		NSXSI:     nsXSI,
		Title:     d.title,
		Creator:   d.creator,
	}
	if !d.created.IsZero() {
		props.Created = &w3cDate{Type: "dcterms:W3CDTF", Value: d.created.UTC().Format(w3cdtfLayout)}
	}
	modified := d.modified
	if modified.IsZero() {
		modified = d.created
	}
	if !modified.IsZero() {
		props.Modified = &w3cDate{Type: "dcterms:W3CDTF", Value: modified.UTC().Format(w3cdtfLayout)}
	}
	return marshalPart(props)
}

func marshalPart(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), data...), nil
}

var _ io.WriterTo = (*Document)(nil)
