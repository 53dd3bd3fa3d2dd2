package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotWordDocument reports input that cannot be opened as a
// word-processing container.
var ErrNotWordDocument = errors.New("not a word-processing document")

// Reader provides access to the contents of an existing document.
type Reader struct {
	paragraphs []ParsedParagraph
	tables     []ParsedTable
	props      CoreProperties
}

// ParsedParagraph is a body paragraph with resolved style information.
type ParsedParagraph struct {
	Text      string
	StyleID   string
	StyleName string
	Centered  bool
	Runs      []ParsedRun
}

// ParsedRun is a text segment with its format flags.
type ParsedRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// ParsedTable holds table cell text by row. Cell paragraphs are joined
// with newlines.
type ParsedTable struct {
	Rows [][]string
}

// CoreProperties is the document metadata. Zero times mean the property
// was absent.
type CoreProperties struct {
	Title    string
	Creator  string
	Created  time.Time
	Modified time.Time
}

// Read parses a word-processing document from data. It returns
// ErrNotWordDocument when data is not a readable container holding a
// main document part.
func Read(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWordDocument, err)
	}

	docData, err := fileContent(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing main document part", ErrNotWordDocument)
	}
	var doc documentXML
	if err := xml.Unmarshal(docData, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWordDocument, err)
	}

	r := &Reader{
		props: readCoreProperties(zr),
	}
	styleNames := readStyleNames(zr)
	if doc.Body != nil {
		for _, p := range doc.Body.Paragraphs {
			r.paragraphs = append(r.paragraphs, parseParagraph(p, styleNames))
		}
		for _, t := range doc.Body.Tables {
			r.tables = append(r.tables, parseTable(t))
		}
	}
	return r, nil
}

// Paragraphs returns body paragraphs in document order. Paragraphs inside
// table cells are not included.
func (r *Reader) Paragraphs() []ParsedParagraph {
	return r.paragraphs
}

// Tables returns body tables in document order.
func (r *Reader) Tables() []ParsedTable {
	return r.tables
}

// Properties returns the document core properties.
func (r *Reader) Properties() CoreProperties {
	return r.props
}

// Read-side XML mapping. Tags use bare local names so documents carrying
// any namespace prefix unmarshal the same way.

type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    *bodyXML `xml:"body"`
}

type bodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
	Tables     []tableXML     `xml:"tbl"`
}

type paragraphXML struct {
	Properties paragraphPropsXML `xml:"pPr"`
	Runs       []runXML          `xml:"r"`
}

type paragraphPropsXML struct {
	Style         valAttrXML `xml:"pStyle"`
	Justification valAttrXML `xml:"jc"`
}

type valAttrXML struct {
	Val string `xml:"val,attr"`
}

type runXML struct {
	Properties runPropsXML `xml:"rPr"`
	Text       []textXML   `xml:"t"`
	Breaks     []breakXML  `xml:"br"`
	Tabs       []tabXML    `xml:"tab"`
}

type runPropsXML struct {
	Bold   boolXML `xml:"b"`
	Italic boolXML `xml:"i"`
}

// boolXML is a presence element with an optional val attribute. Presence
// alone means true; an explicit "false" or "0" means false.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

func (b boolXML) isSet() bool {
	if b.XMLName.Local == "" {
		return false
	}
	return b.Val != "false" && b.Val != "0"
}

type textXML struct {
	Space string `xml:"space,attr"`
	Value string `xml:",chardata"`
}

type breakXML struct {
	Type string `xml:"type,attr"`
}

type tabXML struct{}

type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

type tableCellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type stylesXML struct {
	Styles []styleDefXML `xml:"style"`
}

type styleDefXML struct {
	StyleID string     `xml:"styleId,attr"`
	Name    valAttrXML `xml:"name"`
}

type corePropertiesXML struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

func fileContent(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// readStyleNames maps style IDs to display names. Missing or malformed
// styles parts yield an empty map; callers fall back to the raw ID.
func readStyleNames(zr *zip.Reader) map[string]string {
	names := make(map[string]string)
	data, err := fileContent(zr, "word/styles.xml")
	if err != nil {
		return names
	}
	var styles stylesXML
	if err := xml.Unmarshal(data, &styles); err != nil {
		return names
	}
	for _, s := range styles.Styles {
		if s.StyleID != "" && s.Name.Val != "" {
			names[s.StyleID] = s.Name.Val
		}
	}
	return names
}

// readCoreProperties extracts document metadata. The properties part is
// optional; absence yields zero values.
func readCoreProperties(zr *zip.Reader) CoreProperties {
	var props CoreProperties
	data, err := fileContent(zr, "docProps/core.xml")
	if err != nil {
		return props
	}
	var core corePropertiesXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return props
	}
	props.Title = core.Title
	props.Creator = core.Creator
	props.Created = parseW3CDTF(core.Created)
	props.Modified = parseW3CDTF(core.Modified)
	return props
}

// parseW3CDTF parses the date formats found in core properties, from the
// full timestamp down to a bare date. Unparseable values yield zero.
func parseW3CDTF(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseParagraph(p paragraphXML, styleNames map[string]string) ParsedParagraph {
	parsed := ParsedParagraph{
		StyleID:  p.Properties.Style.Val,
		Centered: p.Properties.Justification.Val == "center",
	}
	if parsed.StyleID != "" {
		if name, ok := styleNames[parsed.StyleID]; ok {
			parsed.StyleName = name
		} else {
			parsed.StyleName = parsed.StyleID
		}
	}

	var text strings.Builder
	for _, r := range p.Runs {
		runText := extractRunText(r)
		if runText == "" {
			continue
		}
		text.WriteString(runText)
		parsed.Runs = append(parsed.Runs, ParsedRun{
			Text:   runText,
			Bold:   r.Properties.Bold.isSet(),
			Italic: r.Properties.Italic.isSet(),
		})
	}
	parsed.Text = text.String()
	return parsed
}

// extractRunText joins a run's text nodes, with tabs and breaks rendered
// as whitespace.
func extractRunText(run runXML) string {
	var parts []string
	for _, t := range run.Text {
		parts = append(parts, t.Value)
	}
	for range run.Tabs {
		parts = append(parts, "\t")
	}
	for range run.Breaks {
		parts = append(parts, "\n")
	}
	return strings.Join(parts, "")
}

func parseTable(t tableXML) ParsedTable {
	table := ParsedTable{Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cellText(cell))
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// cellText joins all cell paragraphs with newlines.
func cellText(cell tableCellXML) string {
	parts := make([]string, 0, len(cell.Paragraphs))
	for _, p := range cell.Paragraphs {
		var text strings.Builder
		for _, r := range p.Runs {
			text.WriteString(extractRunText(r))
		}
		parts = append(parts, text.String())
	}
	return strings.Join(parts, "\n")
}
