package md2docx

import "strings"

// blockKind discriminates the typed block stream produced by the tokenizer.
type blockKind uint8

const (
	blockBlank blockKind = iota
	blockHeading
	blockParagraph
	blockListItem
	blockListStart
	blockListEnd
	blockTable
)

// listStyle distinguishes bullet from numbered lists.
type listStyle uint8

const (
	listBullet listStyle = iota
	listNumbered
)

// inlineKind discriminates inline tokens inside a block.
type inlineKind uint8

const (
	inlineText inlineKind = iota
	inlineBoldOpen
	inlineBoldClose
	inlineItalicOpen
	inlineItalicClose
)

// inline is one token of a block's inline stream: either a text span or
// a formatting boundary. Boundary tokens never leave the tokenizer/
// reconstructor subsystem; downstream stages only ever see runs.
type inline struct {
	kind inlineKind
	text string // set only for inlineText
}

// block is one element of the typed block stream.
type block struct {
	kind    blockKind
	level   int       // heading level, 1..4
	style   listStyle // list items and boundaries
	depth   int       // list nesting depth for items, 1-based
	inlines []inline  // heading/paragraph/list item content
	table   *tableData
}

// hasContent reports whether the block carries any formatting marker or
// visible text. Whitespace-only blocks without markers are discarded.
func (b *block) hasContent() bool {
	for _, in := range b.inlines {
		if in.kind != inlineText {
			return true
		}
		if strings.TrimSpace(in.text) != "" {
			return true
		}
	}
	return false
}

// tableData holds a table captured opaquely in document position.
type tableData struct {
	rows [][]cell
}

// cell is one table cell.
type cell struct {
	text   string
	header bool
}

// maxColumns returns the widest row's cell count.
func (t *tableData) maxColumns() int {
	widest := 0
	for _, r := range t.rows {
		if len(r) > widest {
			widest = len(r)
		}
	}
	return widest
}

// run is a span of text with uniform formatting.
type run struct {
	text   string
	bold   bool
	italic bool
}
