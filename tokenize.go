package md2docx

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// blockTokenizer turns an HTML fragment into the typed block stream.
type blockTokenizer interface {
	Tokenize(ctx context.Context, htmlContent string) ([]block, error)
}

// streamTokenizer walks raw HTML tokens without building a tree, so
// malformed formatting tags arrive as unpaired markers for the run
// reconstructor to deal with instead of being silently rebalanced by a
// tree parser. It never fails on malformed input: unknown elements are
// transparent and their text is kept.
//
// The walk is line oriented. A newline in a text node and a <br> both
// terminate the current line; a line that carried neither a tracked
// tag nor visible text counts as blank. Consecutive blanks collapse to
// a single separator, and blanks inside lists are dropped entirely.
type streamTokenizer struct{}

// Tokenize converts an HTML fragment into blocks. The walk is a single
// bounded pass; the context is only checked on entry.
func (st *streamTokenizer) Tokenize(ctx context.Context, htmlContent string) ([]block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &tokenizeState{}
	z := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break // EOF, or a malformed tail; keep what we have
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			t.startTag(tok.Data)
		case html.SelfClosingTagToken:
			t.selfClosing(tok.Data)
		case html.EndTagToken:
			t.endTag(tok.Data)
		case html.TextToken:
			t.text(tok.Data)
		}
		// Comments and doctype declarations are ignored.
	}
	t.finish()
	return t.blocks, nil
}

// tokenizeState carries the walk state: the open block, list nesting,
// table capture, and the line/blank bookkeeping.
type tokenizeState struct {
	blocks []block
	cur    *block // open text-bearing block, nil at body level

	listStack []listStyle

	table *tableBuilder // non-nil while inside a table

	sawBlock       bool // at least one block emitted
	gapPending     bool // an empty line was seen; emit one separator
	lineDirty      bool // current line carried a tracked tag or text
	swallowNewline bool // drop the newline that follows a <br>
}

func (t *tokenizeState) startTag(name string) {
	if t.table != nil {
		t.table.startTag(name)
		return
	}
	t.swallowNewline = false

	switch name {
	case "p":
		t.lineDirty = true
		t.flush()
		t.open(block{kind: blockParagraph})
	case "h1", "h2", "h3", "h4":
		t.lineDirty = true
		t.flush()
		t.open(block{kind: blockHeading, level: int(name[1] - '0')})
	case "ul", "ol":
		t.lineDirty = true
		t.flush()
		style := listBullet
		if name == "ol" {
			style = listNumbered
		}
		t.emit(block{kind: blockListStart, style: style})
		t.listStack = append(t.listStack, style)
	case "li":
		t.lineDirty = true
		t.flush()
		style := listBullet
		depth := len(t.listStack)
		if depth > 0 {
			style = t.listStack[depth-1]
		} else {
			depth = 1 // item outside a list wrapper renders as a top-level bullet
		}
		t.open(block{kind: blockListItem, style: style, depth: depth})
	case "table":
		t.lineDirty = true
		t.flush()
		t.table = &tableBuilder{depth: 1}
	case "br":
		t.lineBreak()
	case "strong", "b":
		t.marker(inlineBoldOpen)
	case "em", "i":
		t.marker(inlineItalicOpen)
	default:
		// Transparent: no block boundary, text flows through.
	}
}

func (t *tokenizeState) selfClosing(name string) {
	if t.table != nil {
		return
	}
	t.swallowNewline = false
	if name == "br" {
		t.lineBreak()
	}
}

func (t *tokenizeState) endTag(name string) {
	if t.table != nil {
		if t.table.endTag(name) {
			tbl := t.table.finish()
			t.table = nil
			t.lineDirty = true
			t.emit(block{kind: blockTable, table: tbl})
		}
		return
	}
	t.swallowNewline = false

	switch name {
	case "p", "h1", "h2", "h3", "h4", "li":
		t.lineDirty = true
		t.flush()
	case "ul", "ol":
		t.lineDirty = true
		t.flush()
		// A blank seen inside the list dies with it.
		t.gapPending = false
		style := listBullet
		if name == "ol" {
			style = listNumbered
		}
		if n := len(t.listStack); n > 0 {
			style = t.listStack[n-1]
			t.listStack = t.listStack[:n-1]
		}
		t.emit(block{kind: blockListEnd, style: style})
	case "strong", "b":
		t.closeMarker(inlineBoldClose)
	case "em", "i":
		t.closeMarker(inlineItalicClose)
	}
}

// text distributes a text node. Each newline terminates the current
// line; whitespace-only segments contribute nothing, so a line that
// carried no tag either counts as blank.
func (t *tokenizeState) text(data string) {
	if t.table != nil {
		t.table.text(data)
		return
	}
	if t.swallowNewline {
		t.swallowNewline = false
		data = strings.TrimPrefix(data, "\n")
	}
	if data == "" {
		return
	}
	segments := strings.Split(data, "\n")
	for i, seg := range segments {
		if i > 0 {
			t.endLine()
		}
		if strings.TrimSpace(seg) == "" {
			continue
		}
		t.appendText(seg)
	}
}

// lineBreak handles <br>, which acts exactly like a newline in text.
// Converters emit "<br />\n", so the newline that follows one is part
// of the same break and must not be counted again.
func (t *tokenizeState) lineBreak() {
	t.endLine()
	t.swallowNewline = true
}

// endLine closes the current line. A line that carried nothing
// schedules a blank separator.
func (t *tokenizeState) endLine() {
	if !t.lineDirty {
		t.gapPending = true
	}
	t.flush()
	t.lineDirty = false
}

func (t *tokenizeState) marker(kind inlineKind) {
	t.lineDirty = true
	if t.cur == nil {
		// Formatting at body level still carries text; give it a home.
		t.open(block{kind: blockParagraph})
	}
	t.cur.inlines = append(t.cur.inlines, inline{kind: kind})
}

// closeMarker appends a closing marker only when a block is open: a
// close with no surrounding block has no text to influence.
func (t *tokenizeState) closeMarker(kind inlineKind) {
	t.lineDirty = true
	if t.cur == nil {
		return
	}
	t.cur.inlines = append(t.cur.inlines, inline{kind: kind})
}

func (t *tokenizeState) appendText(s string) {
	t.lineDirty = true
	if t.cur == nil {
		t.open(block{kind: blockParagraph})
	}
	t.cur.inlines = append(t.cur.inlines, inline{kind: inlineText, text: s})
}

// open starts a new text-bearing block, discarding any empty one.
func (t *tokenizeState) open(b block) {
	t.flush()
	t.cur = &b
}

// flush emits the open block if it carries markers or visible text.
// Whitespace at the edges of the block is stripped; interior spacing,
// including a space right after a formatting marker, is preserved.
func (t *tokenizeState) flush() {
	if t.cur == nil {
		return
	}
	b := *t.cur
	t.cur = nil
	b.inlines = trimInlineEdges(b.inlines)
	if !b.hasContent() {
		return
	}
	t.emit(b)
}

// emit appends a block, materializing at most one pending blank
// separator first. Blanks never lead the stream and never appear
// inside lists.
func (t *tokenizeState) emit(b block) {
	if t.gapPending {
		if t.sawBlock && len(t.listStack) == 0 {
			t.blocks = append(t.blocks, block{kind: blockBlank})
		}
		t.gapPending = false
	}
	t.blocks = append(t.blocks, b)
	t.sawBlock = true
}

// finish closes any dangling state at end of input. A trailing blank
// has nothing left to separate and is dropped.
func (t *tokenizeState) finish() {
	if t.table != nil {
		tbl := t.table.finish()
		t.table = nil
		t.emit(block{kind: blockTable, table: tbl})
	}
	t.flush()
}

// trimInlineEdges strips leading and trailing whitespace from the text
// at either edge of an inline sequence, dropping text pieces that
// become empty. Markers bound the trim, so text inside or right after
// formatting keeps its spacing.
func trimInlineEdges(inlines []inline) []inline {
	for len(inlines) > 0 && inlines[0].kind == inlineText {
		inlines[0].text = strings.TrimLeftFunc(inlines[0].text, unicode.IsSpace)
		if inlines[0].text != "" {
			break
		}
		inlines = inlines[1:]
	}
	for len(inlines) > 0 {
		last := len(inlines) - 1
		if inlines[last].kind != inlineText {
			break
		}
		inlines[last].text = strings.TrimRightFunc(inlines[last].text, unicode.IsSpace)
		if inlines[last].text != "" {
			break
		}
		inlines = inlines[:last]
	}
	return inlines
}

// tableBuilder captures a <table> subtree as opaque rows of cells.
// Tags inside cells are stripped and their text is kept; a nested
// table is flattened into the cell that contains it.
type tableBuilder struct {
	rows  [][]cell
	row   []cell
	cell  *cell
	inRow bool
	depth int
}

func (tb *tableBuilder) startTag(name string) {
	switch name {
	case "table":
		tb.depth++
	case "tr":
		if tb.depth == 1 {
			tb.closeRow()
			tb.inRow = true
			tb.row = []cell{}
		}
	case "td", "th":
		if tb.depth == 1 {
			tb.closeCell()
			tb.cell = &cell{header: name == "th"}
		}
	}
}

// endTag returns true when the outermost table has closed.
func (tb *tableBuilder) endTag(name string) bool {
	switch name {
	case "table":
		tb.depth--
		return tb.depth == 0
	case "tr":
		if tb.depth == 1 {
			tb.closeRow()
		}
	case "td", "th":
		if tb.depth == 1 {
			tb.closeCell()
		}
	}
	return false
}

func (tb *tableBuilder) text(data string) {
	if tb.cell != nil {
		tb.cell.text += data
	}
}

func (tb *tableBuilder) closeCell() {
	if tb.cell == nil {
		return
	}
	tb.cell.text = strings.TrimSpace(tb.cell.text)
	tb.row = append(tb.row, *tb.cell)
	tb.cell = nil
}

func (tb *tableBuilder) closeRow() {
	tb.closeCell()
	if !tb.inRow {
		return
	}
	tb.rows = append(tb.rows, tb.row)
	tb.row = nil
	tb.inRow = false
}

func (tb *tableBuilder) finish() *tableData {
	tb.closeRow()
	return &tableData{rows: tb.rows}
}

// Compile-time interface check.
var _ blockTokenizer = (*streamTokenizer)(nil)
