package md2docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-md2docx/internal/ooxml"
)

// docxAssembler builds a word-processing document from the block stream.
type docxAssembler interface {
	Assemble(ctx context.Context, blocks []block, meta Meta) ([]byte, error)
}

// ooxmlAssembler renders blocks into an OOXML container. The technical-data
// block is a construction-time choice, not a per-call one.
type ooxmlAssembler struct {
	technicalData bool
}

func newOOXMLAssembler(technicalData bool) *ooxmlAssembler {
	return &ooxmlAssembler{technicalData: technicalData}
}

// Assemble builds the document: core properties, centered title heading,
// optional technical-data block, then the block stream in order.
func (a *ooxmlAssembler) Assemble(ctx context.Context, blocks []block, meta Meta) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := ooxml.NewDocument()
	a.applyProperties(doc, meta)

	if meta.Title != "" {
		title := doc.AddParagraph(ooxml.HeadingStyle(1))
		title.SetJustification("center")
		title.AddRun(meta.Title, false, false)
	}
	if a.technicalData && meta.HasTechnicalData() {
		a.addTechnicalBlock(doc, meta)
	}

	for i := range blocks {
		a.addBlock(doc, &blocks[i])
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocxAssembly, err)
	}
	return data, nil
}

// applyProperties maps metadata onto core properties. The author property
// carries the organization, matching how generated documents are filed.
// An unparseable date leaves the creation property unset.
func (a *ooxmlAssembler) applyProperties(doc *ooxml.Document, meta Meta) {
	doc.SetTitle(meta.Title)
	doc.SetCreator(meta.Organization)
	if created, ok := parseDocDate(meta.Date); ok {
		doc.SetCreated(created)
	}
}

// addTechnicalBlock emits one bulleted paragraph enumerating the present
// technical fields, one per line, followed by a blank separator paragraph.
func (a *ooxmlAssembler) addTechnicalBlock(doc *ooxml.Document, meta Meta) {
	lines := make([]string, 0, 6)
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+value)
		}
	}
	add("Организация: ", meta.Organization)
	add("Отдел: ", meta.Department)
	add("Тип документа: ", meta.Type)
	add("Номер: ", meta.Number)
	add("Дата: ", meta.Date)
	add("Статус: ", meta.Status)

	p := doc.AddParagraph(ooxml.StyleListBullet)
	p.AddRun(strings.Join(lines, "\n"), false, false)
	doc.AddEmptyParagraph()
}

func (a *ooxmlAssembler) addBlock(doc *ooxml.Document, b *block) {
	switch b.kind {
	case blockBlank:
		doc.AddEmptyParagraph()
	case blockHeading:
		p := doc.AddParagraph(ooxml.HeadingStyle(b.level))
		addRuns(p, b.inlines)
	case blockParagraph:
		p := doc.AddParagraph("")
		addRuns(p, b.inlines)
	case blockListItem:
		style, numID := ooxml.StyleListBullet, ooxml.NumBullet
		if b.style == listNumbered {
			style, numID = ooxml.StyleListNumber, ooxml.NumDecimal
		}
		p := doc.AddParagraph(style)
		p.SetNumbering(numID, b.depth-1)
		addRuns(p, b.inlines)
	case blockTable:
		addTable(doc, b.table)
	case blockListStart, blockListEnd:
		// Boundaries carry no content; items know their own depth.
	}
}

// addRuns reconstructs the inline stream into runs and appends them.
func addRuns(p *ooxml.Paragraph, inlines []inline) {
	for _, r := range reconstructRuns(inlines) {
		p.AddRun(r.text, r.bold, r.italic)
	}
}

// addTable rebuilds a captured table normalized to its widest row. The
// first row renders bold, as does any row containing header-tagged cells;
// rows narrower than the table leave their missing cells empty. A table
// with no columns produces nothing.
func addTable(doc *ooxml.Document, t *tableData) {
	if t == nil {
		return
	}
	cols := t.maxColumns()
	if cols == 0 {
		return
	}
	table := doc.AddTable(cols)
	for i, row := range t.rows {
		bold := i == 0
		for _, c := range row {
			if c.header {
				bold = true
			}
		}
		tr := table.AddRow()
		for j, c := range row {
			tr.SetCell(j, c.text, bold)
		}
	}
}

// Compile-time interface check.
var _ docxAssembler = (*ooxmlAssembler)(nil)
