package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Direction of a single conversion.
type direction int

const (
	directionExport direction = iota // markdown -> target
	directionImport                  // DOCX -> markdown
)

// Job is one file to convert. Target is the output format for export
// jobs; import jobs ignore it.
type Job struct {
	InputPath  string
	OutputPath string
	Direction  direction
	Target     string
}

// targetExtensions maps markdown targets to output extensions.
var targetExtensions = map[string]string{
	targetDOCX: ".docx",
	targetMD:   ".md",
	targetHTML: ".html",
	targetPage: ".html",
	targetPDF:  ".pdf",
}

// discoverJobs expands the input paths into conversion jobs. Directories
// are walked recursively; their tree layout is mirrored under the output
// directory.
func discoverJobs(inputs []string, flagOutput, cfgOutputDir, target string) ([]Job, error) {
	outExt := targetExtensions[target]

	var jobs []Job
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadInput, input, err)
		}

		if !info.IsDir() {
			job, err := fileJob(input, outExt, target)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
			continue
		}

		walked, err := walkJobs(input, outExt, target)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, walked...)
	}

	return applyOutput(jobs, inputs, flagOutput, cfgOutputDir)
}

// fileJob builds the job for one explicitly named file.
func fileJob(path, outExt, target string) (Job, error) {
	dir, err := directionFor(path)
	if err != nil {
		return Job{}, err
	}
	return Job{
		InputPath:  path,
		OutputPath: siblingOutput(path, outExt, dir),
		Direction:  dir,
		Target:     target,
	}, nil
}

// walkJobs collects convertible files under a directory. Files with
// other extensions are skipped silently, matching how the document
// store walks its tree.
func walkJobs(root, outExt, target string) ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		dir, dirErr := directionFor(path)
		if dirErr != nil {
			return nil
		}
		jobs = append(jobs, Job{
			InputPath:  path,
			OutputPath: siblingOutput(path, outExt, dir),
			Direction:  dir,
			Target:     target,
		})
		return nil
	})
	return jobs, err
}

// directionFor classifies an input file by extension.
func directionFor(path string) (direction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return directionExport, nil
	case ".docx":
		return directionImport, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
}

// siblingOutput places the output next to the input file.
func siblingOutput(inputPath, outExt string, dir direction) string {
	if dir == directionImport {
		outExt = ".md"
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(filepath.Dir(inputPath), base+outExt)
}

// applyOutput redirects job outputs according to --output and the
// configured output directory. A single job may target an exact file
// name; multiple jobs require a directory.
func applyOutput(jobs []Job, inputs []string, flagOutput, cfgOutputDir string) ([]Job, error) {
	out := flagOutput
	if out == "" {
		out = cfgOutputDir
	}
	if out == "" || len(jobs) == 0 {
		return jobs, nil
	}

	if looksLikeFile(out) {
		if len(jobs) > 1 {
			return nil, fmt.Errorf("%w: %d files", ErrOutputConflict, len(jobs))
		}
		jobs[0].OutputPath = out
		return jobs, nil
	}

	// Mirror each input's tree under the output directory.
	for i := range jobs {
		rel := filepath.Base(jobs[i].OutputPath)
		for _, input := range inputs {
			if r, err := filepath.Rel(input, jobs[i].OutputPath); err == nil && !strings.HasPrefix(r, "..") && r != "." {
				rel = r
				break
			}
		}
		jobs[i].OutputPath = filepath.Join(out, rel)
	}
	return jobs, nil
}

// looksLikeFile reports whether the output path names a file rather
// than a directory.
func looksLikeFile(path string) bool {
	if info, err := os.Stat(path); err == nil {
		return !info.IsDir()
	}
	ext := filepath.Ext(path)
	return ext != "" && ext != "."
}
