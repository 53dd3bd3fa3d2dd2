// Package backup creates and restores tar.xz archives of the portal's
// working directories. Every archive opens with a JSON manifest entry
// so listings never need to unpack the payload.
package backup

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

const (
	// ArchiveSuffix is the file extension of backup archives.
	ArchiveSuffix = ".tar.xz"

	// DefaultKeep is the number of archives kept when no explicit
	// retention is configured.
	DefaultKeep = 5

	manifestName = "backup_manifest.json"
	archiveStamp = "20060102_150405"
)

// defaultSources are archived when the manager is created without an
// explicit source list.
var defaultSources = []string{"documents", "version_history"}

// Manifest describes one archive. It is stored as the archive's first
// entry.
type Manifest struct {
	Timestamp   string   `json:"timestamp"`
	Comment     string   `json:"comment,omitempty"`
	Directories []string `json:"directories"`
	Files       []string `json:"files,omitempty"`
}

// Info is one archive on disk together with its manifest. Archives
// without a readable manifest keep a zero Manifest.
type Info struct {
	Path     string
	Name     string
	Size     int64
	Manifest Manifest
}

// RestoreOptions controls Restore behavior.
type RestoreOptions struct {
	// Replace clears existing restore targets first. Without it a
	// restore into existing data fails with ErrExistingData.
	Replace bool

	// SnapshotFirst archives the current state before touching it.
	SnapshotFirst bool
}

// Manager creates, lists, restores, and prunes backup archives. Archive
// members are named after the base name of each source.
type Manager struct {
	dir     string
	keep    int
	sources []string

	now func() time.Time
}

// New creates a manager writing archives to dir. A keep below one falls
// back to DefaultKeep; an empty source list falls back to the portal's
// working directories.
func New(dir string, keep int, sources ...string) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidDir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving backup directory: %w", err)
	}
	if keep < 1 {
		keep = DefaultKeep
	}
	if len(sources) == 0 {
		sources = defaultSources
	}

	resolved := make([]string, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if src == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidSource)
		}
		srcAbs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("resolving source %s: %w", src, err)
		}
		base := filepath.Base(srcAbs)
		if seen[base] {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidSource, base)
		}
		seen[base] = true
		resolved = append(resolved, srcAbs)
	}

	return &Manager{dir: abs, keep: keep, sources: resolved, now: time.Now}, nil
}

// Dir returns the absolute path of the backup directory.
func (m *Manager) Dir() string { return m.dir }

// Create archives every existing source into a new backup and returns
// its description. Sources missing on disk are left out of the archive
// and the manifest.
func (m *Manager) Create(ctx context.Context, comment string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("creating backup directory: %w", err)
	}

	name := "backup_" + m.now().Format(archiveStamp) + ArchiveSuffix
	archivePath := filepath.Join(m.dir, name)
	f, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Info{}, fmt.Errorf("creating archive: %w", err)
	}

	if err := m.writeArchive(ctx, f, comment); err != nil {
		f.Close()
		os.Remove(archivePath)
		return Info{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return Info{}, fmt.Errorf("closing archive: %w", err)
	}

	stat, err := os.Stat(archivePath)
	if err != nil {
		return Info{}, fmt.Errorf("reading archive size: %w", err)
	}
	manifest, err := readManifest(archivePath)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: archivePath, Name: name, Size: stat.Size(), Manifest: manifest}, nil
}

func (m *Manager) writeArchive(ctx context.Context, f *os.File, comment string) error {
	xw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("starting compression: %w", err)
	}
	tw := tar.NewWriter(xw)

	manifest := Manifest{Timestamp: m.now().Format(time.RFC3339), Comment: comment}
	type member struct {
		path string
		info fs.FileInfo
	}
	var members []member
	for _, src := range m.sources {
		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading source %s: %w", src, err)
		}
		if info.IsDir() {
			manifest.Directories = append(manifest.Directories, filepath.Base(src))
		} else {
			manifest.Files = append(manifest.Files, filepath.Base(src))
		}
		members = append(members, member{path: src, info: info})
	}

	if err := writeManifestEntry(tw, manifest, m.now()); err != nil {
		return err
	}
	for _, mb := range members {
		if mb.info.IsDir() {
			err = addTree(ctx, tw, mb.path, filepath.Base(mb.path))
		} else {
			err = addFile(tw, mb.path, filepath.Base(mb.path), mb.info)
		}
		if err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("finishing compression: %w", err)
	}
	return nil
}

func writeManifestEntry(tw *tar.Writer, manifest Manifest, modTime time.Time) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	hdr := &tar.Header{
		Name:     manifestName,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// addTree archives a directory recursively under prefix. Symlinks and
// special files stay out of archives.
func addTree(ctx context.Context, tw *tar.Writer, dir, prefix string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", prefix, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("walking %s: %w", prefix, err)
		}
		name := path.Join(prefix, filepath.ToSlash(rel))
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		switch {
		case d.IsDir():
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return fmt.Errorf("archiving %s: %w", name, err)
			}
			hdr.Name = name + "/"
			if err := tw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("archiving %s: %w", name, err)
			}
			return nil
		case !d.Type().IsRegular():
			return nil
		default:
			return addFile(tw, p, name, info)
		}
	})
}

func addFile(tw *tar.Writer, filePath, name string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}

// List returns the archives in the backup directory, newest first. The
// timestamped names make lexical and chronological order agree.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArchiveSuffix) {
			continue
		}
		stat, err := e.Info()
		if err != nil {
			continue
		}
		info := Info{Path: filepath.Join(m.dir, e.Name()), Name: e.Name(), Size: stat.Size()}
		if manifest, err := readManifest(info.Path); err == nil {
			info.Manifest = manifest
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// Restore unpacks an archive over the manager's sources. The archive is
// fully validated before anything on disk is touched.
func (m *Manager) Restore(ctx context.Context, archivePath string, opts RestoreOptions) error {
	if !strings.HasSuffix(archivePath, ArchiveSuffix) {
		return fmt.Errorf("%w: %s", ErrInvalidArchive, filepath.Base(archivePath))
	}
	members, err := validateArchive(archivePath)
	if err != nil {
		return err
	}
	primary := filepath.Base(m.sources[0])
	if !members[primary] {
		return fmt.Errorf("%w: missing %s", ErrInvalidArchive, primary)
	}

	targets := make(map[string]string, len(m.sources))
	for _, src := range m.sources {
		targets[filepath.Base(src)] = src
	}

	if !opts.Replace {
		for base, dst := range targets {
			if !members[base] {
				continue
			}
			if _, err := os.Stat(dst); err == nil {
				return fmt.Errorf("%w: %s", ErrExistingData, dst)
			}
		}
	}

	if opts.SnapshotFirst {
		if _, err := m.Create(ctx, "перед восстановлением из "+filepath.Base(archivePath)); err != nil {
			return fmt.Errorf("snapshot before restore: %w", err)
		}
	}

	if opts.Replace {
		for base, dst := range targets {
			if !members[base] {
				continue
			}
			if err := os.RemoveAll(dst); err != nil {
				return fmt.Errorf("clearing %s: %w", dst, err)
			}
		}
	}

	return extract(ctx, archivePath, targets)
}

// Prune removes the oldest archives beyond the retention limit and
// returns the removed names.
func (m *Manager) Prune() ([]string, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) <= m.keep {
		return nil, nil
	}
	var removed []string
	for _, info := range infos[m.keep:] {
		if err := os.Remove(info.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", info.Name, err)
		}
		removed = append(removed, info.Name)
	}
	return removed, nil
}

// validateArchive scans every entry of an archive and returns the set
// of top-level member names. Unsafe entry names fail the whole archive.
func validateArchive(archivePath string) (map[string]bool, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	tr := tar.NewReader(xr)

	members := make(map[string]bool)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		name, ok := sanitizeEntryName(hdr.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unsafe entry %q", ErrInvalidArchive, hdr.Name)
		}
		members[topSegment(name)] = true
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: empty archive", ErrInvalidArchive)
	}
	return members, nil
}

func extract(ctx context.Context, archivePath string, targets map[string]string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	tr := tar.NewReader(xr)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		name, ok := sanitizeEntryName(hdr.Name)
		if !ok {
			continue
		}
		top := topSegment(name)
		dst, ok := targets[top]
		if !ok {
			continue
		}
		target := dst
		if rest := strings.TrimPrefix(strings.TrimPrefix(name, top), "/"); rest != "" {
			target = filepath.Join(dst, filepath.FromSlash(rest))
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("restoring %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("restoring %s: %w", name, err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("restoring %s: %w", name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("restoring %s: %w", name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("restoring %s: %w", name, err)
			}
		default:
			// Symlinks and special files are never restored.
		}
	}
}

func readManifest(archivePath string) (Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return Manifest{}, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	tr := tar.NewReader(xr)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		if hdr.Name != manifestName {
			continue
		}
		var manifest Manifest
		if err := json.NewDecoder(io.LimitReader(tr, 1<<20)).Decode(&manifest); err != nil {
			return Manifest{}, fmt.Errorf("%w: bad manifest: %v", ErrInvalidArchive, err)
		}
		return manifest, nil
	}
	return Manifest{}, fmt.Errorf("%w: no manifest entry", ErrInvalidArchive)
}

// sanitizeEntryName cleans a tar entry name and reports whether it can
// safely be placed under a restore target.
func sanitizeEntryName(name string) (string, bool) {
	name = strings.TrimSuffix(path.Clean(strings.TrimPrefix(name, "/")), "/")
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, true
}

func topSegment(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
