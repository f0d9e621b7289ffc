package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-chatfmt/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md, .markdown or .txt extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// MaxWorkers bounds --workers.
const MaxWorkers = 32

// outputExt is the extension of formatted files.
const outputExt = "html"

// inputExtensions lists the files the format command picks up in directories.
var inputExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// FileToFormat represents a single file to process.
type FileToFormat struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all response files to format.
func discoverFiles(inputPath, outputDir string) ([]FileToFormat, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateInputExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToFormat{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToFormat
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !inputExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToFormat{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the HTML output path for an input file.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	if strings.HasSuffix(outputDir, ".html") {
		return outputDir
	}

	// outputExt is a constant; ReplaceExtension cannot fail on it.
	outPath, _ := fileutil.ReplaceExtension(inputPath, outputExt)
	if outputDir == "" {
		return outPath
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, outPath)
		if err == nil {
			return filepath.Join(outputDir, relPath)
		}
	}

	return filepath.Join(outputDir, filepath.Base(outPath))
}

// validateInputExtension checks that the file has a supported extension.
func validateInputExtension(path string) error {
	ext := filepath.Ext(path)
	if !inputExtensions[strings.ToLower(ext)] {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, MaxWorkers)
	}
	return nil
}
