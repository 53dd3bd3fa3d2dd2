package md2docx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alnah/go-md2docx/internal/fileutil"
	"github.com/alnah/go-md2docx/internal/process"
)

// defaultPDFBinary is the converter invoked by ExecRenderer when no
// binary is named.
const defaultPDFBinary = "wkhtmltopdf"

// commandRunner abstracts command execution to enable testing without
// real subprocesses.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

// execCommandRunner runs commands with os/exec. On cancellation it kills
// the whole process group, since the converter spawns helper processes
// that a plain kill would leave behind.
type execCommandRunner struct{}

func (execCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		process.KillProcessGroup(cmd.Process.Pid)
		_ = cmd.Process.Kill()
		<-done
		return stderr.String(), ctx.Err()
	case err := <-done:
		return stderr.String(), err
	}
}

// ExecRenderer renders HTML pages to PDF by invoking an external
// wkhtmltopdf-compatible converter. It is the fallback for environments
// where running a headless browser is not an option.
type ExecRenderer struct {
	binary string
	runner commandRunner
}

// NewExecRenderer creates an ExecRenderer for the given converter binary
// (empty means wkhtmltopdf). The binary is resolved at construction;
// a missing one returns ErrPDFUnavailable rather than failing later
// mid-conversion.
func NewExecRenderer(binary string) (*ExecRenderer, error) {
	if binary == "" {
		binary = defaultPDFBinary
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%w: %s not found in PATH", ErrPDFUnavailable, binary)
	}
	return &ExecRenderer{binary: binary, runner: execCommandRunner{}}, nil
}

// RenderPDF writes the page to a temporary file and converts it with A4
// geometry and 2 cm margins.
func (r *ExecRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inPath, cleanupIn, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	outPath, cleanupOut, err := fileutil.WriteTempFile("", "pdf")
	if err != nil {
		return nil, err
	}
	defer cleanupOut()

	args := []string{
		"--page-size", "A4",
		"--margin-top", "2cm",
		"--margin-right", "2cm",
		"--margin-bottom", "2cm",
		"--margin-left", "2cm",
		"--encoding", "UTF-8",
		"--no-outline",
		"--enable-local-file-access",
		"--quiet",
		inPath,
		outPath,
	}

	stderr, err := r.runner.Run(ctx, r.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrPDFGeneration, strings.TrimSpace(stderr), err)
	}

	pdfBuf, err := os.ReadFile(outPath) // #nosec G304 -- path comes from CreateTemp
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrPDFGeneration, err)
	}
	if len(pdfBuf) == 0 {
		return nil, fmt.Errorf("%w: converter produced no output", ErrPDFGeneration)
	}

	return pdfBuf, nil
}

// Close implements PDFRenderer; the exec renderer holds no resources.
func (r *ExecRenderer) Close() error { return nil }

// Compile-time interface check.
var _ PDFRenderer = (*ExecRenderer)(nil)
