package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/fileutil"
)

// FormatResult holds the outcome of a single file.
type FormatResult struct {
	InputPath  string
	OutputPath string
	Report     chatfmt.Report
	Err        error
	Duration   time.Duration
}

// formatBatch processes files concurrently with a shared Formatter.
func formatBatch(ctx context.Context, f *chatfmt.Formatter, r *renderer, files []FileToFormat, workers int) []FormatResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(max(workers, 1), len(files))

	results := make([]FormatResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = FormatResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = formatFile(f, r, files[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// formatFile processes a single file and returns the result.
func formatFile(f *chatfmt.Formatter, r *renderer, file FileToFormat) FormatResult {
	start := time.Now()
	result := FormatResult{
		InputPath:  file.InputPath,
		OutputPath: file.OutputPath,
	}

	info, err := os.Stat(file.InputPath)
	if err == nil && info.Size() > maxInputSize {
		err = fmt.Errorf("file exceeds %d bytes", maxInputSize)
	}
	var content []byte
	if err == nil {
		content, err = os.ReadFile(file.InputPath) // #nosec G304 -- discovered path
	}
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadInput, err)
		result.Duration = time.Since(start)
		return result
	}

	res := f.Format(string(content))
	result.Report = res.Report

	out, err := r.render(res, file.InputPath)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	if err := fileutil.WriteAtomic(file.OutputPath, out); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed files.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed files.
func countResults(results []FormatResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs per-file results and returns the failure count.
func printResults(results []FormatResult, flags *formatFlags, env *Environment) int {
	summary := countResults(results)
	quiet, verbose := flags.common.quiet, flags.common.verbose

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		if flags.report {
			printReport(env.Stderr, r.InputPath, r.Report)
		}
		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
