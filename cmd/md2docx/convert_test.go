package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/config"
)

func testDeps() (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Dependencies{Now: time.Now, Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		to      string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to docx", to: "", want: targetDOCX},
		{name: "docx", to: "docx", want: targetDOCX},
		{name: "md", to: "md", want: targetMD},
		{name: "html", to: "html", want: targetHTML},
		{name: "page", to: "page", want: targetPage},
		{name: "pdf", to: "pdf", want: targetPDF},
		{name: "case insensitive", to: "HTML", want: targetHTML},
		{name: "unknown target", to: "rtf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveTarget(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownTarget) {
					t.Fatalf("error = %v, want %v", err, ErrUnknownTarget)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveTarget(%q) = %q, want %q", tt.to, got, tt.want)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		workers int
		wantErr bool
	}{
		{name: "zero means auto", workers: 0},
		{name: "valid count", workers: 4},
		{name: "maximum", workers: md2docx.MaxPoolSize},
		{name: "negative", workers: -1, wantErr: true},
		{name: "above maximum", workers: md2docx.MaxPoolSize + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateWorkers(tt.workers)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWorkerCount) {
					t.Errorf("error = %v, want %v", err, ErrInvalidWorkerCount)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("flags override config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		mergeFlags(&cliFlags{style: "corporate", assetPath: "/assets", noTechnicalData: true, noFrontMatter: true}, cfg)

		if cfg.CSS.Style != "corporate" {
			t.Errorf("Style = %q, want %q", cfg.CSS.Style, "corporate")
		}
		if cfg.Assets.BasePath != "/assets" {
			t.Errorf("BasePath = %q, want %q", cfg.Assets.BasePath, "/assets")
		}
		if cfg.Convert.IncludeTechnicalData() {
			t.Error("technical data should be disabled")
		}
		if cfg.Convert.FrontMatterEnabled() {
			t.Error("front matter should be disabled")
		}
	})

	t.Run("empty flags keep config values", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.CSS.Style = "corporate"
		mergeFlags(&cliFlags{}, cfg)

		if cfg.CSS.Style != "corporate" {
			t.Errorf("Style = %q, want %q", cfg.CSS.Style, "corporate")
		}
		if !cfg.Convert.IncludeTechnicalData() {
			t.Error("technical data should stay enabled")
		}
	})
}

func TestServiceOptions(t *testing.T) {
	t.Parallel()

	t.Run("invalid timeout", func(t *testing.T) {
		t.Parallel()

		_, err := serviceOptions(&cliFlags{timeout: "soon"}, config.DefaultConfig(), targetDOCX)
		if err == nil || !strings.Contains(err.Error(), "invalid timeout") {
			t.Errorf("error = %v, want invalid timeout", err)
		}
	})

	t.Run("missing asset path", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Assets.BasePath = filepath.Join(t.TempDir(), "нет")
		_, err := serviceOptions(&cliFlags{}, cfg, targetDOCX)
		if err == nil {
			t.Error("expected error for missing asset directory")
		}
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("converts markdown to docx", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeInput(t, dir, "регламент.md", testMarkdown)
		deps, stdout, _ := testDeps()

		if err := run(&cliFlags{}, []string{input}, deps); err != nil {
			t.Fatalf("run() error: %v", err)
		}

		output := filepath.Join(dir, "регламент.docx")
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("PK")) {
			t.Error("output should be a ZIP container")
		}
		if !strings.Contains(stdout.String(), "Created "+output) {
			t.Errorf("stdout = %q", stdout.String())
		}
	})

	t.Run("imports docx to markdown", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		svc := md2docx.New()
		defer svc.Close()
		docx, err := svc.ToDOCX(context.Background(), md2docx.Document{
			Body: "# Приказ\n\nТекст приказа.",
			Meta: md2docx.Meta{Title: "Приказ"},
		})
		if err != nil {
			t.Fatalf("building fixture: %v", err)
		}
		input := filepath.Join(dir, "приказ.docx")
		if err := os.WriteFile(input, docx, 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
		deps, _, _ := testDeps()

		if err := run(&cliFlags{quiet: true}, []string{input}, deps); err != nil {
			t.Fatalf("run() error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "приказ.md"))
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if !strings.Contains(string(data), "title: Приказ") {
			t.Errorf("imported markdown should carry front matter, got:\n%s", data)
		}
	})

	t.Run("uses config output directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeInput(t, dir, "устав.md", testMarkdown)
		outDir := filepath.Join(dir, "готовые")
		cfgPath := filepath.Join(dir, "md2docx.yaml")
		cfgYAML := "output:\n  dir: " + outDir + "\n"
		if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		deps, _, _ := testDeps()

		if err := run(&cliFlags{config: cfgPath, quiet: true}, []string{input}, deps); err != nil {
			t.Fatalf("run() error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(outDir, "устав.docx")); err != nil {
			t.Errorf("output missing: %v", err)
		}
	})

	t.Run("no input", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps()
		if err := run(&cliFlags{}, nil, deps); !errors.Is(err, ErrNoInput) {
			t.Errorf("error = %v, want %v", err, ErrNoInput)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps()
		err := run(&cliFlags{to: "rtf"}, []string{"doc.md"}, deps)
		if !errors.Is(err, ErrUnknownTarget) {
			t.Errorf("error = %v, want %v", err, ErrUnknownTarget)
		}
	})

	t.Run("invalid worker count", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps()
		err := run(&cliFlags{workers: -1}, []string{"doc.md"}, deps)
		if !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("error = %v, want %v", err, ErrInvalidWorkerCount)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps()
		err := run(&cliFlags{config: filepath.Join(t.TempDir(), "нет.yaml")}, []string{"doc.md"}, deps)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want %v", err, config.ErrConfigNotFound)
		}
	})

	t.Run("failed conversion reported", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeInput(t, dir, "битый.md", "---\ntitle: [unclosed\n---\nТекст")
		deps, _, stderr := testDeps()

		err := run(&cliFlags{}, []string{input}, deps)
		if err == nil || !strings.Contains(err.Error(), "1 conversion(s) failed") {
			t.Fatalf("error = %v, want failed conversion count", err)
		}
		if !strings.Contains(stderr.String(), "FAILED") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})
}

func TestDescribeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "timeout hint",
			err:  context.DeadlineExceeded,
			want: "use --timeout flag",
		},
		{
			name: "config hint",
			err:  config.ErrConfigNotFound,
			want: "use --config /path/to/file.yaml",
		},
		{
			name: "docx hint",
			err:  md2docx.ErrUnsupportedInput,
			want: "only .docx (OOXML) files are supported",
		},
		{
			name: "write hint",
			err:  ErrWriteOutput,
			want: "check parent directory exists",
		},
		{
			name: "style hint",
			err:  md2docx.ErrStyleNotFound,
			want: "available: default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := describeError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("describeError() = %q, should contain %q", got, tt.want)
			}
		})
	}

	t.Run("plain error has no hint", func(t *testing.T) {
		t.Parallel()

		if got := describeError(errors.New("boom")); strings.Contains(got, "hint:") {
			t.Errorf("describeError() = %q, should not contain a hint", got)
		}
	})
}
