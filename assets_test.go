package md2docx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAssetLoader_EmptyPath(t *testing.T) {
	t.Parallel()

	loader, err := NewAssetLoader("")
	if err != nil {
		t.Fatalf("NewAssetLoader(\"\") error = %v", err)
	}

	css, err := loader.LoadStyle(DefaultStyle)
	if err != nil {
		t.Errorf("LoadStyle(%q) error = %v", DefaultStyle, err)
	}
	if css == "" {
		t.Error("LoadStyle returned empty CSS for the built-in style")
	}

	tmpl, err := loader.LoadTemplate(DefaultTemplate)
	if err != nil {
		t.Errorf("LoadTemplate(%q) error = %v", DefaultTemplate, err)
	}
	if !strings.Contains(tmpl, "{{.Content}}") {
		t.Error("built-in page template should reference {{.Content}}")
	}
}

func TestNewAssetLoader_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := NewAssetLoader("/nonexistent/path/abc123xyz")
	if !errors.Is(err, ErrInvalidAssetPath) {
		t.Errorf("NewAssetLoader() error = %v, want %v", err, ErrInvalidAssetPath)
	}
}

func TestNewAssetLoader_CustomOverridesEmbedded(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	stylesDir := filepath.Join(tmpDir, "styles")
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		t.Fatalf("failed to create styles dir: %v", err)
	}

	marker := "/* корпоративный стиль */ body { margin: 3cm; }"
	if err := os.WriteFile(filepath.Join(stylesDir, DefaultStyle+".css"), []byte(marker), 0o644); err != nil {
		t.Fatalf("failed to write custom style: %v", err)
	}

	loader, err := NewAssetLoader(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetLoader() error = %v", err)
	}

	// The custom file shadows the embedded one.
	css, err := loader.LoadStyle(DefaultStyle)
	if err != nil {
		t.Fatalf("LoadStyle() error = %v", err)
	}
	if css != marker {
		t.Errorf("LoadStyle() = %q, want the custom style", css)
	}

	// Templates are absent from the custom dir, so the embedded page
	// template still resolves.
	tmpl, err := loader.LoadTemplate(DefaultTemplate)
	if err != nil {
		t.Fatalf("LoadTemplate() fallback error = %v", err)
	}
	if !strings.Contains(tmpl, "{{.Content}}") {
		t.Error("fallback should return the embedded page template")
	}
}

func TestAssetLoader_PublicSentinels(t *testing.T) {
	t.Parallel()

	loader, err := NewAssetLoader("")
	if err != nil {
		t.Fatalf("NewAssetLoader(\"\") error = %v", err)
	}

	tests := []struct {
		name    string
		load    func() (string, error)
		wantErr error
	}{
		{
			name:    "missing style",
			load:    func() (string, error) { return loader.LoadStyle("no-such-style") },
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "missing template",
			load:    func() (string, error) { return loader.LoadTemplate("no-such-template") },
			wantErr: ErrTemplateNotFound,
		},
		{
			name:    "traversal in style name",
			load:    func() (string, error) { return loader.LoadStyle("../secret") },
			wantErr: ErrInvalidAssetPath,
		},
		{
			name:    "traversal in template name",
			load:    func() (string, error) { return loader.LoadTemplate("..\\secret") },
			wantErr: ErrInvalidAssetPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.load()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssetLoader_ErrorKeepsDetail(t *testing.T) {
	t.Parallel()

	loader, err := NewAssetLoader("")
	if err != nil {
		t.Fatalf("NewAssetLoader(\"\") error = %v", err)
	}

	_, err = loader.LoadStyle("otchet")
	if err == nil {
		t.Fatal("expected error for missing style")
	}
	// The public sentinel matches, and the message still names the asset.
	if !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("error = %v, want %v", err, ErrStyleNotFound)
	}
	if !strings.Contains(err.Error(), "otchet") {
		t.Errorf("error message should name the missing style, got %q", err.Error())
	}
}

func TestDefaultAssetLoader(t *testing.T) {
	t.Parallel()

	loader := defaultAssetLoader()

	if _, err := loader.LoadStyle(DefaultStyle); err != nil {
		t.Errorf("LoadStyle(%q) error = %v", DefaultStyle, err)
	}
	if _, err := loader.LoadTemplate(DefaultTemplate); err != nil {
		t.Errorf("LoadTemplate(%q) error = %v", DefaultTemplate, err)
	}
}
