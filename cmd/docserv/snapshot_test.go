package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2docx/internal/store"
)

// snapshotConfig writes a config pointing all working directories into dir.
func snapshotConfig(t *testing.T, dir string) string {
	t.Helper()
	content := fmt.Sprintf("library:\n  dir: %s\nhistory:\n  enabled: true\n  dir: %s\n  limit: 10\n",
		filepath.Join(dir, "docs"), filepath.Join(dir, "history"))
	return testConfig(t, dir, content)
}

func TestRunSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("records changed documents", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		docs := filepath.Join(dir, "docs")
		writeDoc(t, docs, "устав.md", "---\ntitle: Устав организации\n---\n\n# Устав\n\nТекст устава.\n")
		cfgPath := snapshotConfig(t, dir)

		var out bytes.Buffer
		if err := runSnapshot([]string{"-c", cfgPath}, &out); err != nil {
			t.Fatalf("runSnapshot() error: %v", err)
		}
		if !strings.Contains(out.String(), "v1  устав.md") {
			t.Errorf("output missing version line: %q", out.String())
		}
		if !strings.Contains(out.String(), "Recorded 1 new version(s), 1 document(s) checked") {
			t.Errorf("output missing summary: %q", out.String())
		}

		// An unchanged tree records nothing on the second pass.
		out.Reset()
		if err := runSnapshot([]string{"-c", cfgPath}, &out); err != nil {
			t.Fatalf("second runSnapshot() error: %v", err)
		}
		if !strings.Contains(out.String(), "Recorded 0 new version(s), 1 document(s) checked") {
			t.Errorf("second pass output = %q, want no new versions", out.String())
		}
	})

	t.Run("quiet keeps only the summary", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		docs := filepath.Join(dir, "docs")
		writeDoc(t, docs, "приказ.md", "# Приказ\n\nО назначении ответственных.\n")
		cfgPath := snapshotConfig(t, dir)

		var out bytes.Buffer
		if err := runSnapshot([]string{"-c", cfgPath, "--quiet"}, &out); err != nil {
			t.Fatalf("runSnapshot() error: %v", err)
		}
		if strings.Contains(out.String(), "v1 ") {
			t.Errorf("quiet output contains version lines: %q", out.String())
		}
		if !strings.Contains(out.String(), "Recorded 1 new version(s)") {
			t.Errorf("quiet output missing summary: %q", out.String())
		}
	})

	t.Run("history disabled", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeDoc(t, filepath.Join(dir, "docs"), "устав.md", "# Устав\n")
		cfgPath := testConfig(t, dir, fmt.Sprintf("library:\n  dir: %s\nhistory:\n  enabled: false\n",
			filepath.Join(dir, "docs")))

		var out bytes.Buffer
		err := runSnapshot([]string{"-c", cfgPath}, &out)
		if !errors.Is(err, ErrHistoryDisabled) {
			t.Errorf("runSnapshot() error = %v, want ErrHistoryDisabled", err)
		}
	})

	t.Run("missing documents directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := snapshotConfig(t, dir)

		var out bytes.Buffer
		err := runSnapshot([]string{"-c", cfgPath}, &out)
		if !errors.Is(err, store.ErrInvalidRoot) {
			t.Errorf("runSnapshot() error = %v, want ErrInvalidRoot", err)
		}
	})
}
