package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-chatfmt/internal/clipboard"
	"github.com/alnah/go-chatfmt/internal/hints"
)

// ErrClipboard indicates the system clipboard could not be written.
var ErrClipboard = errors.New("clipboard write failed")

// clipboardWriter records the outcome of a copy trigger, which reports
// nothing itself.
type clipboardWriter struct {
	write  func(string) error
	called bool
	err    error
}

func (c *clipboardWriter) Write(s string) error {
	c.called = true
	if c.write == nil {
		c.err = errors.New("no clipboard configured")
		return c.err
	}
	c.err = c.write(s)
	return c.err
}

func (c *clipboardWriter) result() error {
	if c.err != nil {
		return fmt.Errorf("%w: %v%s", ErrClipboard, c.err, hints.ForClipboard())
	}
	return nil
}

// runCopyCmd copies a code block or a whole message from formatted HTML.
func runCopyCmd(args []string, env *Environment) error {
	flags, positional, err := parseCopyFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if (flags.block == "") == !flags.message {
		return fmt.Errorf("%w: use exactly one of --block or --message", ErrUsage)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: copy takes at most one file", ErrUsage)
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}

	var r io.Reader = env.Stdin
	if len(positional) == 1 && positional[0] != stdinArg {
		file, err := os.Open(positional[0]) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	if r == nil {
		return ErrNoInput
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	w := &clipboardWriter{write: env.Clipboard}
	copier := &clipboard.Copier{Writer: w.Write, Logger: s.logger}
	if flags.message {
		copier.CopyMessage(string(data))
	} else {
		copier.CopyCode(string(data), flags.block)
	}

	if err := w.result(); err != nil {
		return err
	}
	if !w.called {
		fmt.Fprintln(env.Stderr, "warning: nothing to copy")
		return nil
	}
	if !flags.common.quiet {
		fmt.Fprintln(env.Stdout, "Copied to clipboard")
	}
	return nil
}
