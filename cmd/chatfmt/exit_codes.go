package main

import (
	"context"
	"errors"
	"os"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/config"
	"github.com/alnah/go-chatfmt/internal/dateutil"
	"github.com/alnah/go-chatfmt/internal/history"
)

// Exit codes for chatfmt CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, clipboard
	ExitModel   = 4 // Model endpoint errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Model errors (exit 4)
	if errors.Is(err, completion.ErrCompletion) ||
		errors.Is(err, completion.ErrEmptyCompletion) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitModel
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrClipboard) ||
		errors.Is(err, history.ErrHistoryIO) ||
		errors.Is(err, history.ErrCorrupt) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, chatfmt.ErrInvalidCharRange) ||
		errors.Is(err, chatfmt.ErrInvalidLabel) ||
		errors.Is(err, completion.ErrNoAPIKey) ||
		errors.Is(err, history.ErrChatNotFound) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrTemplateParse) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
