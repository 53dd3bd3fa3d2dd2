package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AttachmentKind classifies an attachment by its extension.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentTable AttachmentKind = "table"
	AttachmentOther AttachmentKind = "other"
)

// Attachment is a supporting file found in a document's attachment
// directory. RelPath is relative to the document's directory.
type Attachment struct {
	Name    string         `json:"name"`
	RelPath string         `json:"path"`
	Kind    AttachmentKind `json:"type"`
	Size    int64          `json:"size"`
	Ext     string         `json:"extension"`
}

// attachmentKinds maps recognized extensions to their kind; files with
// other extensions are not attachments.
var attachmentKinds = map[string]AttachmentKind{
	".jpg":  AttachmentImage,
	".jpeg": AttachmentImage,
	".png":  AttachmentImage,
	".gif":  AttachmentImage,
	".bmp":  AttachmentImage,
	".svg":  AttachmentImage,
	".webp": AttachmentImage,
	".xlsx": AttachmentTable,
	".xls":  AttachmentTable,
	".csv":  AttachmentTable,
	".ods":  AttachmentTable,
	".pdf":  AttachmentOther,
	".doc":  AttachmentOther,
	".docx": AttachmentOther,
	".txt":  AttachmentOther,
	".rtf":  AttachmentOther,
}

// findAttachments collects the attachments of the document at docPath.
// Candidate directories are probed in order and the first one that
// exists wins, even when it holds no recognized files.
func (s *Store) findAttachments(docPath string) []Attachment {
	docDir := filepath.Dir(docPath)
	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))

	candidates := make([]string, 0, len(s.attachmentDirs)+2)
	candidates = append(candidates, s.attachmentDirs...)
	candidates = append(candidates, stem+"_приложения", stem+"_attachments")

	for _, name := range candidates {
		dir := filepath.Join(docDir, name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		return collectAttachments(dir, docDir)
	}
	return nil
}

// collectAttachments walks one attachment directory, keeping files with
// recognized extensions, sorted by name.
func collectAttachments(dir, docDir string) []Attachment {
	var atts []Attachment
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		kind, ok := attachmentKinds[ext]
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(docDir, path)
		if err != nil {
			return nil
		}
		atts = append(atts, Attachment{
			Name:    d.Name(),
			RelPath: filepath.ToSlash(rel),
			Kind:    kind,
			Size:    info.Size(),
			Ext:     ext,
		})
		return nil
	})
	sort.Slice(atts, func(i, j int) bool { return atts[i].Name < atts[j].Name })
	return atts
}

// AttachmentFile resolves a root-relative attachment reference to an
// absolute file path. Symlinks are resolved before the containment
// check so a link cannot expose files outside the tree.
func (s *Store) AttachmentFile(rel string) (string, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return "", fmt.Errorf("resolving attachment: %w", err)
	}
	rootResolved, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return "", fmt.Errorf("resolving document root: %w", err)
	}
	if resolved != rootResolved && !strings.HasPrefix(resolved, rootResolved+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return resolved, nil
}
