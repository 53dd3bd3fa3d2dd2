// Package history keeps per-document version history: a JSON index of
// change records plus a full snapshot of every recorded version, laid
// out in a directory tree mirroring the document tree.
package history

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	md2docx "github.com/alnah/go-md2docx"
)

// DefaultLimit is the number of versions kept per document when no
// explicit limit is configured.
const DefaultLimit = 10

// Record is one entry of a document's change history.
type Record struct {
	Version     int          `json:"version"`
	Timestamp   string       `json:"timestamp"`
	Author      string       `json:"author"`
	Comment     string       `json:"comment"`
	Hash        string       `json:"hash"`
	FilePath    string       `json:"file_path"`
	VersionFile string       `json:"version_file"`
	Meta        md2docx.Meta `json:"metadata"`
}

// Tracker records document changes under a history directory. Safe for
// concurrent use.
type Tracker struct {
	docsDir string
	dir     string
	limit   int

	mu  sync.Mutex
	now func() time.Time
}

// New creates a tracker reading documents from docsDir and keeping
// history under historyDir. A limit below one falls back to
// DefaultLimit. Neither directory needs to exist yet.
func New(docsDir, historyDir string, limit int) (*Tracker, error) {
	if docsDir == "" || historyDir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidDir)
	}
	docsAbs, err := filepath.Abs(docsDir)
	if err != nil {
		return nil, fmt.Errorf("resolving document directory: %w", err)
	}
	histAbs, err := filepath.Abs(historyDir)
	if err != nil {
		return nil, fmt.Errorf("resolving history directory: %w", err)
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Tracker{docsDir: docsAbs, dir: histAbs, limit: limit, now: time.Now}, nil
}

// Dir returns the absolute path of the history directory.
func (t *Tracker) Dir() string { return t.dir }

// Track records the current state of the document at relPath. When the
// content hash matches the last recorded version, nothing is written
// and the last record comes back with recorded = false.
func (t *Tracker) Track(ctx context.Context, relPath string, meta md2docx.Meta, author, comment string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	rel, err := normalizeRel(relPath)
	if err != nil {
		return Record{}, false, err
	}

	content, err := os.ReadFile(filepath.Join(t.docsDir, filepath.FromSlash(rel)))
	if err != nil {
		return Record{}, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	sum := blake3.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.readIndex(rel)
	if err != nil {
		return Record{}, false, err
	}
	if n := len(records); n > 0 && records[n-1].Hash == hash {
		return records[n-1], false, nil
	}

	version := 1
	if n := len(records); n > 0 {
		version = records[n-1].Version + 1
	}

	snapRel := path.Join(path.Dir(rel), fmt.Sprintf("%s.v%d.md", stem(rel), version))
	snapAbs := filepath.Join(t.dir, filepath.FromSlash(snapRel))
	if err := os.MkdirAll(filepath.Dir(snapAbs), 0o755); err != nil {
		return Record{}, false, fmt.Errorf("creating history directory: %w", err)
	}
	if err := os.WriteFile(snapAbs, content, 0o644); err != nil {
		return Record{}, false, fmt.Errorf("writing version snapshot: %w", err)
	}

	rec := Record{
		Version:     version,
		Timestamp:   t.now().Format(time.RFC3339),
		Author:      author,
		Comment:     comment,
		Hash:        hash,
		FilePath:    rel,
		VersionFile: snapRel,
		Meta:        meta,
	}
	records = t.prune(append(records, rec))

	if err := t.writeIndex(rel, records); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// History returns the change records of a document, oldest first. A
// document that was never tracked has empty history.
func (t *Tracker) History(relPath string) ([]Record, error) {
	rel, err := normalizeRel(relPath)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readIndex(rel)
}

// Version returns one change record together with the snapshot content
// of that version.
func (t *Tracker) Version(relPath string, version int) (Record, string, error) {
	rel, err := normalizeRel(relPath)
	if err != nil {
		return Record{}, "", err
	}

	t.mu.Lock()
	records, err := t.readIndex(rel)
	t.mu.Unlock()
	if err != nil {
		return Record{}, "", err
	}

	for _, rec := range records {
		if rec.Version != version {
			continue
		}
		content, err := os.ReadFile(filepath.Join(t.dir, filepath.FromSlash(rec.VersionFile)))
		if err != nil {
			return Record{}, "", fmt.Errorf("reading version snapshot: %w", err)
		}
		return rec, string(content), nil
	}
	return Record{}, "", fmt.Errorf("%w: %s v%d", ErrVersionNotFound, rel, version)
}

// prune drops the oldest records beyond the retention limit and deletes
// their snapshots. Version numbers keep counting up.
func (t *Tracker) prune(records []Record) []Record {
	for len(records) > t.limit {
		old := records[0]
		records = records[1:]
		_ = os.Remove(filepath.Join(t.dir, filepath.FromSlash(old.VersionFile)))
	}
	return records
}

func (t *Tracker) indexPath(rel string) string {
	name := stem(rel) + ".versions.json"
	return filepath.Join(t.dir, filepath.FromSlash(path.Join(path.Dir(rel), name)))
}

func (t *Tracker) readIndex(rel string) ([]Record, error) {
	data, err := os.ReadFile(t.indexPath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history index: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing history index: %w", err)
	}
	return records, nil
}

func (t *Tracker) writeIndex(rel string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history index: %w", err)
	}
	indexPath := t.indexPath(rel)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return fmt.Errorf("writing history index: %w", err)
	}
	return nil
}

// normalizeRel canonicalizes a document reference relative to the tree
// root, rejecting references that climb out of it.
func normalizeRel(relPath string) (string, error) {
	rel := path.Clean(strings.TrimPrefix(filepath.ToSlash(relPath), "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, relPath)
	}
	return rel, nil
}

func stem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
