// Package frontmatter splits, parses, and renders the ----delimited YAML
// metadata block carried at the head of Markdown documents.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-md2docx/internal/yamlutil"
)

// Delimiter is the line that opens and closes a metadata block.
const Delimiter = "---"

// blockPattern matches a document that starts with a ----delimited block.
// The block body is lazy so the first closing delimiter wins.
var blockPattern = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n(.*)\z`)

// Split separates a leading metadata block from the document body.
// Returns the raw YAML (without delimiters), the body, and whether a block
// was found. Documents without a block return ("", content, false).
func Split(content string) (meta, body string, found bool) {
	m := blockPattern.FindStringSubmatch(content)
	if m == nil {
		return "", content, false
	}
	return m[1], m[2], true
}

// Parse decodes the leading metadata block into v and returns the body.
// A document without a block leaves v untouched and returns the content
// unchanged.
func Parse(content string, v any) (string, error) {
	meta, body, found := Split(content)
	if !found {
		return content, nil
	}
	if strings.TrimSpace(meta) == "" {
		return body, nil
	}
	if err := yamlutil.Unmarshal([]byte(meta), v); err != nil {
		return "", fmt.Errorf("parsing front matter: %w", err)
	}
	return body, nil
}

// Render serializes v as YAML and prepends it to body as a delimited block,
// separated from the body by one blank line.
func Render(v any, body string) (string, error) {
	data, err := yamlutil.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("rendering front matter: %w", err)
	}
	var b strings.Builder
	b.Grow(len(data) + len(body) + 16)
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	b.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(Delimiter)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String(), nil
}
