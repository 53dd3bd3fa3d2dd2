// Package store manages the Markdown document tree behind the portal
// and the converter: loading documents with their front matter, deriving
// requisites from the tree layout, discovering attachments, filtering,
// and resolving cross-document references.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2docx "github.com/alnah/go-md2docx"
)

// defaultAttachmentDirs are the directory names searched for attachments
// when the store is opened without an explicit list.
var defaultAttachmentDirs = []string{"приложения", "attachments"}

// Store reads and writes a document tree rooted at a single directory.
// The tree layout carries meaning: the first path segment names the
// organization and the second the department, used when a document's
// front matter does not carry them.
type Store struct {
	root           string
	attachmentDirs []string
}

// Document is one Markdown file of the tree: the conversion document
// (body, metadata, approval block) plus its location and attachments.
type Document struct {
	md2docx.Document

	// Path is the absolute file path; RelPath the slash-separated path
	// relative to the store root, used in portal URLs and indexes.
	Path    string
	RelPath string

	Attachments []Attachment
}

// New opens the document tree rooted at dir. attachmentDirs overrides
// the directory names searched for attachments next to each document;
// the per-document "<name>_приложения" and "<name>_attachments"
// variants are always searched.
func New(dir string, attachmentDirs ...string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving document root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, dir)
	}
	if len(attachmentDirs) == 0 {
		attachmentDirs = defaultAttachmentDirs
	}
	return &Store{root: abs, attachmentDirs: attachmentDirs}, nil
}

// Root returns the absolute path of the document tree root.
func (s *Store) Root() string { return s.root }

// Load walks the tree and parses every Markdown document, in walk
// order. Files that cannot be read or carry broken front matter are
// skipped and the walk continues.
func (s *Store) Load(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		doc, perr := s.ParseFile(ctx, path)
		if perr != nil {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking document tree: %w", err)
	}
	return docs, nil
}

// Get returns the document at a root-relative path. A missing ".md"
// extension is appended; references that climb out of the root return
// ErrInvalidPath.
func (s *Store) Get(ctx context.Context, rel string) (Document, error) {
	abs, err := s.resolve(ensureMarkdownExt(rel))
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return s.ParseFile(ctx, abs)
}

// ParseFile parses a single document file. The path must lie inside the
// store root.
func (s *Store) ParseFile(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	rel, err := s.relPath(abs)
	if err != nil {
		return Document{}, err
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", rel, err)
	}

	doc, err := s.Parse(string(raw), rel)
	if err != nil {
		return Document{}, err
	}
	doc.Path = abs
	doc.Attachments = s.findAttachments(abs)
	return doc, nil
}

// Parse builds a document from raw Markdown content as if it lived at
// rel inside the tree. Used for content that is not on disk, like
// history snapshots; no attachments are discovered.
func (s *Store) Parse(content, rel string) (Document, error) {
	doc, err := md2docx.DecodeDocument(content)
	if err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", rel, err)
	}
	fillFromPath(&doc.Meta, rel)

	doc.Approval, doc.Body = extractApproval(strings.TrimSpace(doc.Body))

	return Document{Document: doc, RelPath: rel}, nil
}

// Save writes content to a document file under the root, creating
// parent directories, and returns the parsed result.
func (s *Store) Save(ctx context.Context, rel, content string) (Document, error) {
	abs, err := s.resolve(ensureMarkdownExt(rel))
	if err != nil {
		return Document{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Document{}, fmt.Errorf("creating document directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return Document{}, fmt.Errorf("writing document: %w", err)
	}
	return s.ParseFile(ctx, abs)
}

// ensureMarkdownExt appends ".md" to references written without it.
func ensureMarkdownExt(rel string) string {
	if strings.HasSuffix(strings.ToLower(rel), ".md") {
		return rel
	}
	return rel + ".md"
}

// resolve maps a root-relative reference to an absolute path, rejecting
// references that climb out of the root.
func (s *Store) resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return abs, nil
}

// relPath converts an absolute path inside the root to the slash form
// used in URLs and indexes.
func (s *Store) relPath(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, abs)
	}
	return filepath.ToSlash(rel), nil
}

// fillFromPath derives organization and department from the tree layout
// (<org>/<dept>/...) for fields the front matter leaves empty. A
// document sitting directly under the root names neither.
func fillFromPath(m *md2docx.Meta, rel string) {
	parts := strings.Split(rel, "/")
	if len(parts) >= 2 && m.Organization == "" {
		m.Organization = parts[0]
	}
	if len(parts) >= 3 && m.Department == "" {
		m.Department = parts[1]
	}
}
