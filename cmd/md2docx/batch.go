package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	md2docx "github.com/alnah/go-md2docx"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Result holds the outcome of a single conversion.
type Result struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch processes jobs concurrently using the service pool.
func convertBatch(ctx context.Context, pool *md2docx.ServicePool, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			defer pool.Release(svc)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = Result{
						InputPath: jobs[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertOne(ctx, svc, jobs[idx])
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// convertOne processes a single job and returns the result.
func convertOne(ctx context.Context, svc *md2docx.Service, job Job) Result {
	start := time.Now()
	result := Result{
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
	}

	content, err := os.ReadFile(job.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadInput, err)
		result.Duration = time.Since(start)
		return result
	}

	data, err := convertContent(ctx, svc, job, content)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- converted documents are meant to be readable
	if err := os.WriteFile(job.OutputPath, data, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// convertContent runs the conversion the job describes and returns the
// bytes to write.
func convertContent(ctx context.Context, svc *md2docx.Service, job Job, content []byte) ([]byte, error) {
	if job.Direction == directionImport {
		doc, err := svc.FromDOCX(ctx, content)
		if err != nil {
			return nil, err
		}
		md, err := svc.EncodeDocument(doc)
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	}

	doc, err := md2docx.DecodeDocument(string(content))
	if err != nil {
		return nil, err
	}

	switch job.Target {
	case targetMD:
		out, err := svc.EncodeDocument(doc)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case targetHTML:
		out, err := svc.ToHTML(ctx, doc)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case targetPage:
		out, err := svc.ToPage(ctx, doc)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case targetPDF:
		return svc.ToPDF(ctx, doc)
	default:
		return svc.ToDOCX(ctx, doc)
	}
}

// countResults tallies succeeded and failed conversions.
func countResults(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

// printResults writes per-file outcomes and a final summary, returning
// the number of failed conversions.
func printResults(results []Result, quiet, verbose bool, deps *Dependencies) int {
	succeeded, failed := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(deps.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(deps.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(deps.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(deps.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}
