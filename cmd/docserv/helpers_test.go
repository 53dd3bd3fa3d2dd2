package main

import (
	"os"
	"path/filepath"
	"testing"
)

// testConfig writes a config file into dir and returns its path.
func testConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "docserv.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// writeDoc writes a document into the tree rooted at dir, creating
// parent directories as needed, and returns its absolute path.
func writeDoc(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating document directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing document: %v", err)
	}
	return path
}
