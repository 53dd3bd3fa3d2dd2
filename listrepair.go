package md2docx

import (
	"regexp"
	"strings"
)

// Some renderers leave "label:" list constructs flat instead of
// producing a real <ul>. Two defect shapes are repaired:
//
//	<p><strong>Label:</strong>
//	- item
//	- item</p>
//
// and
//
//	<p><strong>Label:</strong></p>
//	- item
//	- item
//
// Both become a label paragraph followed by a proper unordered list.
var (
	// Shape 1: label and items inside a single paragraph.
	inlineLabelList = regexp.MustCompile(`<p><strong>([^<]+):</strong>\s*(?:<br ?/?>\s*)?\n((?:- [^\n]+\n?)+)</p>`)

	// Shape 2: label paragraph followed by bare item lines.
	// The bounded terminator check lives in repairDetachedLabelList.
	detachedLabelList = regexp.MustCompile(`(<p><strong>([^<]+):</strong></p>)\s*\n((?:- [^\n]+\n?)+)`)

	// One "- item" line inside a captured item block.
	labelListItem = regexp.MustCompile(`- ([^\n]+)`)

	// Trailing hard-wrap break on an item line.
	trailingBreakTag = regexp.MustCompile(`\s*<br ?/?>\s*$`)
)

// repairLists rewrites both defect shapes, most specific first.
// It never fails; unrecognized input is returned unchanged.
func repairLists(htmlContent string) string {
	htmlContent = repairInlineLabelList(htmlContent)
	htmlContent = repairDetachedLabelList(htmlContent)
	return htmlContent
}

// repairInlineLabelList handles the label-plus-items-in-one-paragraph shape.
func repairInlineLabelList(htmlContent string) string {
	return inlineLabelList.ReplaceAllStringFunc(htmlContent, func(match string) string {
		sub := inlineLabelList.FindStringSubmatch(match)
		header, items := sub[1], sub[2]
		return "<p><strong>" + header + ":</strong></p>\n" + buildListHTML(items)
	})
}

// repairDetachedLabelList handles the label-paragraph-then-bare-items shape.
// Matching is bounded: the item block must be followed by a blank line or
// the start of the next block element (<p>, heading, <div>). Unterminated
// label-without-list sequences are left untouched.
func repairDetachedLabelList(htmlContent string) string {
	matches := detachedLabelList.FindAllStringSubmatchIndex(htmlContent, -1)
	if matches == nil {
		return htmlContent
	}

	var b strings.Builder
	last := 0
	replaced := false

	for _, m := range matches {
		start, end := m[0], m[1]
		headerTag := htmlContent[m[2]:m[3]]
		items := htmlContent[m[6]:m[7]]
		rest := htmlContent[end:]

		ok := rest == "" ||
			strings.HasPrefix(rest, "\n\n") ||
			strings.HasPrefix(rest, "<p>") ||
			strings.HasPrefix(rest, "<h") ||
			strings.HasPrefix(rest, "<div")
		if !ok && strings.HasSuffix(items, "\n") && strings.HasPrefix(rest, "\n") {
			// The item block's own trailing newline plus the next one
			// form the blank-line terminator.
			ok = true
		}
		if !ok {
			continue
		}

		b.WriteString(htmlContent[last:start])
		b.WriteString(headerTag)
		b.WriteString("\n")
		b.WriteString(buildListHTML(items))
		last = end
		replaced = true
	}

	if !replaced {
		return htmlContent
	}
	b.WriteString(htmlContent[last:])
	return b.String()
}

// buildListHTML renders captured "- item" lines as an unordered list.
func buildListHTML(items string) string {
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, m := range labelListItem.FindAllStringSubmatch(items, -1) {
		item := strings.TrimSpace(trailingBreakTag.ReplaceAllString(m[1], ""))
		b.WriteString("  <li>")
		b.WriteString(item)
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}
