package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/config"
	"github.com/alnah/go-md2docx/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("input must be a .md, .markdown, or .docx file")
	ErrUnknownTarget      = errors.New("unknown target format")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputConflict     = errors.New("output names a single file but multiple inputs matched")
)

// Conversion targets for markdown inputs. DOCX inputs are always
// imported back to markdown regardless of target. The md target
// re-encodes markdown in place, canonicalizing line endings and front
// matter.
const (
	targetDOCX = "docx"
	targetMD   = "md"
	targetHTML = "html"
	targetPage = "page"
	targetPDF  = "pdf"
)

// run orchestrates the conversion process.
func run(flags *cliFlags, args []string, deps *Dependencies) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if flags.config != "" {
		loaded, err := config.LoadConfig(flags.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	mergeFlags(flags, cfg)

	target, err := resolveTarget(flags.to)
	if err != nil {
		return err
	}

	opts, err := serviceOptions(flags, cfg, target)
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 && dirExists(cfg.Library.Dir) {
		inputs = []string{cfg.Library.Dir}
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}

	jobs, err := discoverJobs(inputs, flags.output, cfg.Output.Dir, target)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no convertible files in %s", ErrNoInput, strings.Join(inputs, ", "))
	}

	poolSize := md2docx.ResolvePoolSize(flags.workers)
	if flags.verbose {
		fmt.Fprintf(deps.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := md2docx.NewServicePool(poolSize, opts...)
	defer pool.Close()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	results := convertBatch(ctx, pool, jobs)

	failed := printResults(results, flags.quiet, flags.verbose, deps)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *cliFlags, cfg *config.Config) {
	if flags.style != "" {
		cfg.CSS.Style = flags.style
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}
	if flags.noTechnicalData {
		v := false
		cfg.Convert.TechnicalData = &v
	}
	if flags.noFrontMatter {
		v := false
		cfg.Convert.FrontMatter = &v
	}
}

// resolveTarget validates the --to flag. Empty means DOCX.
func resolveTarget(to string) (string, error) {
	switch strings.ToLower(to) {
	case "":
		return targetDOCX, nil
	case targetDOCX, targetMD, targetHTML, targetPage, targetPDF:
		return strings.ToLower(to), nil
	default:
		return "", fmt.Errorf("%w: %q (expected docx, md, html, page, or pdf)", ErrUnknownTarget, to)
	}
}

// serviceOptions builds the service option set for the pool.
func serviceOptions(flags *cliFlags, cfg *config.Config, target string) ([]md2docx.Option, error) {
	opts := []md2docx.Option{
		md2docx.WithTechnicalData(cfg.Convert.IncludeTechnicalData()),
		md2docx.WithFrontMatter(cfg.Convert.FrontMatterEnabled()),
	}

	if cfg.CSS.Style != "" {
		opts = append(opts, md2docx.WithStyle(cfg.CSS.Style))
	}
	if cfg.Assets.BasePath != "" {
		resolver, err := assets.NewAssetResolver(cfg.Assets.BasePath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		opts = append(opts, md2docx.WithAssetLoader(resolver))
	}
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", flags.timeout, err)
		}
		opts = append(opts, md2docx.WithTimeout(d))
	}
	if target == targetPDF {
		renderTimeout := time.Duration(cfg.PDF.Timeout) * time.Second
		opts = append(opts, md2docx.WithPDFRenderer(md2docx.NewChromeRenderer(renderTimeout)))
	}
	return opts, nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2docx.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2docx.MaxPoolSize)
	}
	return nil
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// describeError appends an actionable hint to the error message when one
// applies.
func describeError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, md2docx.ErrBrowserConnect):
		msg += hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		msg += hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		msg += hints.ForConfigNotFound(nil)
	case errors.Is(err, md2docx.ErrUnsupportedInput):
		msg += hints.ForDocxOpen()
	case errors.Is(err, md2docx.ErrStyleNotFound):
		msg += hints.ForStyleNotFound([]string{assets.DefaultStyleName})
	case errors.Is(err, ErrWriteOutput):
		msg += hints.ForOutputDirectory()
	}
	return msg
}
