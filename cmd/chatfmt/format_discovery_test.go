package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"next to source", "docs/a.md", "", "", filepath.Join("docs", "a.html")},
		{"explicit html file", "a.md", "out/result.html", "", "out/result.html"},
		{"output dir", "docs/a.markdown", "out", "", filepath.Join("out", "a.html")},
		{"mirrors tree", filepath.Join("in", "sub", "b.txt"), "out", "in", filepath.Join("out", "sub", "b.html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir); got != tt.want {
				t.Errorf("resolveOutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outputDir, tt.baseDir, got, tt.want)
			}
		})
	}
}

func TestValidateInputExtension(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"a.md", "a.MD", "a.markdown", "a.txt"} {
		if err := validateInputExtension(path); err != nil {
			t.Errorf("validateInputExtension(%q) = %v, want nil", path, err)
		}
	}
	for _, path := range []string{"a.pdf", "a", "a.html"} {
		if err := validateInputExtension(path); !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("validateInputExtension(%q) = %v, want ErrInvalidExtension", path, err)
		}
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, MaxWorkers} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, MaxWorkers + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}
