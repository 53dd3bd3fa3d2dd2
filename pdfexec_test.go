package md2docx

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
)

// fakeCommandRunner implements commandRunner without spawning processes.
// On success it writes canned bytes to the output path (the last
// argument) the way the real converter would.
type fakeCommandRunner struct {
	called       bool
	name         string
	args         []string
	inputContent string
	stderr       string
	err          error
	output       []byte
}

func (f *fakeCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.called = true
	f.name = name
	f.args = args

	if len(args) >= 2 {
		if data, err := os.ReadFile(args[len(args)-2]); err == nil {
			f.inputContent = string(data)
		}
	}

	if f.err != nil {
		return f.stderr, f.err
	}
	if f.output != nil && len(args) >= 1 {
		if err := os.WriteFile(args[len(args)-1], f.output, 0o600); err != nil {
			return "", err
		}
	}
	return f.stderr, nil
}

func TestExecRenderer_RenderPDF(t *testing.T) {
	fake := &fakeCommandRunner{output: []byte("%PDF-1.4 converted")}
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: fake}

	html := "<html><body>Регламент</body></html>"
	result, err := renderer.RenderPDF(context.Background(), html)
	if err != nil {
		t.Fatalf("RenderPDF() unexpected error: %v", err)
	}

	if string(result) != "%PDF-1.4 converted" {
		t.Errorf("RenderPDF() = %q, want converter output", result)
	}
	if fake.name != "wkhtmltopdf" {
		t.Errorf("runner invoked %q, want wkhtmltopdf", fake.name)
	}
	if fake.inputContent != html {
		t.Errorf("input file content = %q, want %q", fake.inputContent, html)
	}
}

func TestExecRenderer_A4Geometry(t *testing.T) {
	fake := &fakeCommandRunner{output: []byte("%PDF-1.4")}
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: fake}

	if _, err := renderer.RenderPDF(context.Background(), "<html></html>"); err != nil {
		t.Fatalf("RenderPDF() unexpected error: %v", err)
	}

	wantFlags := []string{
		"--page-size", "A4",
		"--margin-top", "2cm",
		"--margin-right", "2cm",
		"--margin-bottom", "2cm",
		"--margin-left", "2cm",
		"--encoding", "UTF-8",
		"--no-outline",
		"--enable-local-file-access",
		"--quiet",
	}
	if len(fake.args) != len(wantFlags)+2 {
		t.Fatalf("runner got %d args, want %d flags plus in/out paths", len(fake.args), len(wantFlags))
	}
	for i, want := range wantFlags {
		if fake.args[i] != want {
			t.Errorf("args[%d] = %q, want %q", i, fake.args[i], want)
		}
	}
	if !strings.HasSuffix(fake.args[len(fake.args)-2], ".html") {
		t.Errorf("input path = %q, want .html file", fake.args[len(fake.args)-2])
	}
	if !strings.HasSuffix(fake.args[len(fake.args)-1], ".pdf") {
		t.Errorf("output path = %q, want .pdf file", fake.args[len(fake.args)-1])
	}
}

func TestExecRenderer_ConverterFailure(t *testing.T) {
	fake := &fakeCommandRunner{
		stderr: "Error: network timeout\n",
		err:    errors.New("exit status 1"),
	}
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: fake}

	_, err := renderer.RenderPDF(context.Background(), "<html></html>")
	if !errors.Is(err, ErrPDFGeneration) {
		t.Fatalf("RenderPDF() error = %v, want %v", err, ErrPDFGeneration)
	}
	if !strings.Contains(err.Error(), "Error: network timeout") {
		t.Errorf("error should carry converter stderr, got %v", err)
	}
}

func TestExecRenderer_EmptyOutput(t *testing.T) {
	// Runner succeeds but writes nothing to the output file.
	fake := &fakeCommandRunner{}
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: fake}

	_, err := renderer.RenderPDF(context.Background(), "<html></html>")
	if !errors.Is(err, ErrPDFGeneration) {
		t.Errorf("RenderPDF() error = %v, want %v", err, ErrPDFGeneration)
	}
}

func TestExecRenderer_ContextCanceledBeforeRun(t *testing.T) {
	fake := &fakeCommandRunner{}
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: fake}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.RenderPDF(ctx, "<html></html>")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RenderPDF() error = %v, want context.Canceled", err)
	}
	if fake.called {
		t.Error("runner should not run after cancellation")
	}
}

// cancelingRunner cancels the context mid-run, simulating a conversion
// interrupted by shutdown.
type cancelingRunner struct {
	cancel context.CancelFunc
}

func (c *cancelingRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	c.cancel()
	return "", ctx.Err()
}

func TestExecRenderer_CanceledDuringRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: &cancelingRunner{cancel: cancel}}

	_, err := renderer.RenderPDF(ctx, "<html></html>")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderPDF() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrPDFGeneration) {
		t.Error("cancellation should not be reported as a generation failure")
	}
}

func TestNewExecRenderer(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		_, err := NewExecRenderer("definitely-not-a-real-converter-binary")
		if !errors.Is(err, ErrPDFUnavailable) {
			t.Errorf("NewExecRenderer() error = %v, want %v", err, ErrPDFUnavailable)
		}
	})

	t.Run("resolvable binary", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("relies on sh being in PATH")
		}

		renderer, err := NewExecRenderer("sh")
		if err != nil {
			t.Fatalf("NewExecRenderer() unexpected error: %v", err)
		}
		if renderer.binary != "sh" {
			t.Errorf("binary = %q, want sh", renderer.binary)
		}
	})
}

func TestExecRenderer_Close(t *testing.T) {
	renderer := &ExecRenderer{binary: "wkhtmltopdf", runner: &fakeCommandRunner{}}
	if err := renderer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
