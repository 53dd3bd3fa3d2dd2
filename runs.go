package md2docx

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	edgeUnderscores = regexp.MustCompile(`^_+\s*|\s*_+$`)
	spaceRuns       = regexp.MustCompile(`\s+`)
)

// reconstructRuns flattens an inline marker sequence into styled runs.
// Well-formed marker pairs become formatted runs, nested pairs
// accumulate flags, and everything malformed degrades to plain text:
// markers may vanish, visible text never does.
func reconstructRuns(inlines []inline) []run {
	return mergeRuns(walkRuns(inlines, false, false))
}

// walkRuns scans left to right carrying the accumulated flags. An
// opening marker is paired with the first close of the same kind;
// markers that never pair are dropped on the spot.
func walkRuns(inlines []inline, bold, italic bool) []run {
	var runs []run
	for i := 0; i < len(inlines); {
		in := inlines[i]
		switch in.kind {
		case inlineText:
			runs = append(runs, run{text: in.text, bold: bold, italic: italic})
			i++
		case inlineBoldOpen, inlineItalicOpen:
			j := findClose(inlines, i+1, closerFor(in.kind))
			if j < 0 {
				// Unmatched opener: the marker vanishes, its text stays.
				i++
				continue
			}
			runs = append(runs, pairRuns(inlines[i+1:j], in.kind, bold, italic)...)
			i = j + 1
		default:
			// Unmatched closer, same treatment.
			i++
		}
	}
	return runs
}

// pairRuns decides what a single matched marker pair contributes,
// based on its interior.
func pairRuns(interior []inline, opener inlineKind, bold, italic bool) []run {
	if !nestsCleanly(interior) {
		// Overlapping or interleaved markers inside the pair. The
		// formatting intent is unrecoverable, so the whole interior
		// degrades to one plain run with the marker debris stripped.
		if text := collapseSpace(edgeUnderscores.ReplaceAllString(visibleText(interior), "")); text != "" {
			return []run{{text: text}}
		}
		return nil
	}

	visible := strings.TrimSpace(visibleText(interior))
	if visible == "" {
		return nil
	}
	if utf8.RuneCountInString(visible) <= 1 || strings.HasPrefix(visible, "_") {
		// Underscore padding or a lone character between markers is
		// marker residue, not intentional emphasis.
		if text := collapseSpace(strings.Trim(visible, "_")); text != "" {
			return []run{{text: text, bold: bold, italic: italic}}
		}
		return nil
	}

	switch opener {
	case inlineBoldOpen:
		bold = true
	case inlineItalicOpen:
		italic = true
	}
	return walkRuns(interior, bold, italic)
}

// findClose returns the index of the first inline of the wanted kind
// at or after from, or -1.
func findClose(inlines []inline, from int, kind inlineKind) int {
	for i := from; i < len(inlines); i++ {
		if inlines[i].kind == kind {
			return i
		}
	}
	return -1
}

func closerFor(opener inlineKind) inlineKind {
	if opener == inlineBoldOpen {
		return inlineBoldClose
	}
	return inlineItalicClose
}

func openerFor(closer inlineKind) inlineKind {
	if closer == inlineBoldClose {
		return inlineBoldOpen
	}
	return inlineItalicOpen
}

// nestsCleanly reports whether every marker inside the slice opens and
// closes in proper LIFO order. Only such interiors can recurse; any
// other shape means the surrounding pair caught a fragment of some
// overlapping construct.
func nestsCleanly(inlines []inline) bool {
	var stack []inlineKind
	for _, in := range inlines {
		switch in.kind {
		case inlineBoldOpen, inlineItalicOpen:
			stack = append(stack, in.kind)
		case inlineBoldClose, inlineItalicClose:
			n := len(stack)
			if n == 0 || stack[n-1] != openerFor(in.kind) {
				return false
			}
			stack = stack[:n-1]
		}
	}
	return len(stack) == 0
}

// visibleText concatenates the text pieces of an inline sequence,
// ignoring markers.
func visibleText(inlines []inline) string {
	var b strings.Builder
	for _, in := range inlines {
		if in.kind == inlineText {
			b.WriteString(in.text)
		}
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}

// mergeRuns concatenates adjacent runs carrying identical flags.
func mergeRuns(runs []run) []run {
	if len(runs) < 2 {
		return runs
	}
	merged := runs[:1]
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if r.bold == last.bold && r.italic == last.italic {
			last.text += r.text
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
