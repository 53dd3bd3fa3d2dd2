package store

import (
	"regexp"
	"strings"
)

// An "УТВЕРЖДАЮ" block carries the approving signatures of a document.
// It sits either at the head of the body before the first content
// heading, or at the tail after a horizontal rule. The header line may
// be a heading, bold text, or bare text.
var (
	approvalHeadPattern = regexp.MustCompile(`(?i)\A(?:#\s*|\*\*)?УТВЕРЖДАЮ(?:\*\*)?\s*\n\n`)

	// approvalHeadEnd finds the first content heading after the block.
	// Headings starting with У count as part of the block.
	approvalHeadEnd = regexp.MustCompile(`(?i)\n\n#\s+[^У]`)

	approvalTailPattern = regexp.MustCompile(`(?is)\n---\s*\n\n(?:#\s*|\*\*)?УТВЕРЖДАЮ(?:\*\*)?\s*\n\n(.*?)(?:\n---|\z)`)

	trailingRulePattern = regexp.MustCompile(`\n---\s*\z`)
)

// extractApproval splits an approval block off the document body.
// Returns the block lines and the body without it; a body without a
// block comes back unchanged with nil lines.
func extractApproval(body string) ([]string, string) {
	if head := approvalHeadPattern.FindStringIndex(body); head != nil {
		rest := body[head[1]:]
		if end := approvalHeadEnd.FindStringIndex(rest); end != nil {
			block := rest[:end[0]]
			cleaned := strings.TrimSpace(rest[end[0]+2:])
			return approvalLines(block), cleaned
		}
	}

	if m := approvalTailPattern.FindStringSubmatchIndex(body); m != nil {
		block := body[m[2]:m[3]]
		cleaned := body[:m[0]] + body[m[1]:]
		cleaned = trailingRulePattern.ReplaceAllString(cleaned, "")
		return approvalLines(block), strings.TrimSpace(cleaned)
	}

	return nil, body
}

// approvalLines splits a block into its non-empty trimmed lines.
func approvalLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
