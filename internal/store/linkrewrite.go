package store

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// URL prefixes used by the portal for rewritten references.
const (
	DocumentURLBase   = "/document/"
	AttachmentURLBase = "/attachment/"
)

// RewriteLinks rewrites references in rendered document HTML so they
// work when served by the portal. doc: links become portal document
// URLs, unresolvable doc: links are marked broken, and relative image
// and file references become attachment URLs.
func (s *Store) RewriteLinks(ctx context.Context, htmlContent string, from Document) (string, error) {
	tree, fragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", fmt.Errorf("parsing rendered document: %w", err)
	}

	rw := &linkRewriter{ctx: ctx, store: s, from: from}
	rw.walk(tree)
	if rw.err != nil {
		return "", rw.err
	}
	return renderHTML(tree, fragment)
}

type linkRewriter struct {
	ctx   context.Context
	store *Store
	from  Document
	err   error
}

func (rw *linkRewriter) walk(n *html.Node) {
	if rw.err != nil {
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "a":
			rw.rewriteAnchor(n)
		case "img":
			rw.rewriteAttr(n, "src")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rw.walk(c)
	}
}

func (rw *linkRewriter) rewriteAnchor(n *html.Node) {
	href := attrValue(n, "href")
	ref, ok := strings.CutPrefix(href, "doc:")
	if !ok {
		rw.rewriteAttr(n, "href")
		return
	}
	if err := rw.ctx.Err(); err != nil {
		rw.err = err
		return
	}

	rel, found := rw.store.ResolveLink(rw.ctx, ref, rw.from.RelPath, rw.from.Meta.Organization)
	if found {
		setAttr(n, "href", DocumentURLBase+EscapePath(rel))
		return
	}
	setAttr(n, "href", "#")
	appendClass(n, "broken-doc-link")
	setAttr(n, "title", "Документ не найден: "+strings.TrimSpace(ref))
}

func (rw *linkRewriter) rewriteAttr(n *html.Node, name string) {
	ref := attrValue(n, name)
	if !rewritableRef(ref) {
		return
	}
	joined := path.Join(path.Dir(rw.from.RelPath), ref)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		// Climbs out of the tree, leave untouched.
		return
	}
	setAttr(n, name, AttachmentURLBase+EscapePath(joined))
}

// rewritableRef reports whether ref is a relative reference the portal
// should serve itself.
func rewritableRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func appendClass(n *html.Node, class string) {
	existing := attrValue(n, "class")
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	if strings.Contains(" "+existing+" ", " "+class+" ") {
		return
	}
	setAttr(n, "class", existing+" "+class)
}

// EscapePath escapes each segment of a slash-separated path for use in
// a URL, keeping the separators.
func EscapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// parseHTML parses content as a full document or a fragment, reporting
// which via the fragment flag so rendering can match.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.TrimSpace(strings.ToLower(content))
	isDocument := strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")

	if isDocument {
		tree, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, false, err
		}
		return tree, false, nil
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the tree back to text. Fragments render only the
// container's children so no synthetic wrapper elements leak in.
func renderHTML(tree *html.Node, fragment bool) (string, error) {
	var sb strings.Builder
	if fragment {
		for c := tree.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&sb, c); err != nil {
				return "", fmt.Errorf("rendering document HTML: %w", err)
			}
		}
		return sb.String(), nil
	}
	if err := html.Render(&sb, tree); err != nil {
		return "", fmt.Errorf("rendering document HTML: %w", err)
	}
	return sb.String(), nil
}
