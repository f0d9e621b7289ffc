package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/fileutil"
	"github.com/alnah/go-chatfmt/internal/hints"
)

// Sentinel errors for CLI I/O.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
)

// maxInputSize bounds one response read from a file or stdin.
const maxInputSize = 10 * 1024 * 1024

// stdinArg selects standard input.
const stdinArg = "-"

// renderer turns a formatted result into output bytes.
type renderer struct {
	page      *assets.Page // nil = bare fragment
	title     string
	copyLabel string
}

func (r *renderer) render(res chatfmt.Result, name string) ([]byte, error) {
	if r.page == nil {
		return []byte(res.HTML + "\n"), nil
	}

	title := r.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	var buf bytes.Buffer
	err := r.page.Render(&buf, assets.PageData{
		Title:     title,
		CopyLabel: r.copyLabel,
		Messages:  []assets.Message{{Role: "ai", HTML: assets.TrustedFragment(res.HTML)}},
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

// runFormatCmd formats response files, a directory, or stdin.
func runFormatCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseFormatFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	f, err := s.newFormatter()
	if err != nil {
		return err
	}

	r := &renderer{title: flags.title, copyLabel: s.copyLabel()}
	if flags.page {
		r.page, err = assets.NewPage(env.AssetLoader, assets.DefaultStyleName, assets.DefaultTemplateName)
		if err != nil {
			return err
		}
	}

	input := ""
	if len(positional) > 0 {
		input = positional[0]
	} else if s.cfg.Input.DefaultDir != "" {
		input = s.cfg.Input.DefaultDir
	}
	if input == "" || input == stdinArg {
		return formatStdin(f, r, flags, env)
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = s.cfg.Output.DefaultDir
	}

	files, err := discoverFiles(input, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no response files found in %s", ErrNoInput, input)
	}

	workers := resolveWorkers(flags.workers, s.env.Workers)
	s.logger.WithField("workers", workers).Debug("formatting files")

	results := formatBatch(ctx, f, r, files, workers)
	failed := printResults(results, flags, env)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

// formatStdin formats standard input to stdout or to --output.
func formatStdin(f *chatfmt.Formatter, r *renderer, flags *formatFlags, env *Environment) error {
	if env.Stdin == nil {
		return ErrNoInput
	}
	data, err := io.ReadAll(io.LimitReader(env.Stdin, maxInputSize+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	if len(data) > maxInputSize {
		return fmt.Errorf("%w: stdin exceeds %d bytes", ErrReadInput, maxInputSize)
	}

	res := f.Format(string(data))
	out, err := r.render(res, "response")
	if err != nil {
		return err
	}
	if flags.report {
		printReport(env.Stderr, "stdin", res.Report)
	}

	if flags.output == "" {
		if _, err := env.Stdout.Write(out); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.WriteAtomic(flags.output, out); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", flags.output)
	}
	return nil
}

// printReport describes what the formatter changed.
func printReport(w io.Writer, name string, r chatfmt.Report) {
	var parts []string
	if r.DroppedRunes > 0 {
		parts = append(parts, fmt.Sprintf("%d character(s) dropped", r.DroppedRunes))
	}
	if r.FenceRepaired {
		parts = append(parts, "unterminated code fence closed")
	}
	if r.TagsClosed > 0 {
		parts = append(parts, fmt.Sprintf("%d tag(s) closed", r.TagsClosed))
	}
	if r.CodeBlocks > 0 {
		parts = append(parts, fmt.Sprintf("%d code block(s)", r.CodeBlocks))
	}
	if r.Neutralized {
		parts = append(parts, fmt.Sprintf("neutralized (%s)", r.NeutralizedBy))
	}
	if len(parts) == 0 {
		parts = append(parts, "clean")
	}
	fmt.Fprintf(w, "%s: %s\n", name, strings.Join(parts, ", "))
}
