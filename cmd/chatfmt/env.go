package main

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/clipboard"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/config"
	"github.com/alnah/go-chatfmt/internal/server"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, configuration, assets and external services.
type Environment struct {
	Now         func() time.Time
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	AssetLoader assets.AssetLoader
	Config      *config.Config // Used when no config file is named; nil = defaults
	Logger      *logrus.Logger

	// Clipboard receives copied text.
	Clipboard func(string) error

	// NewCompleter builds the model client.
	NewCompleter func(completion.Config, logrus.FieldLogger) (server.Completer, error)
}

// DefaultEnv returns production environment with embedded assets.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		AssetLoader:  assets.NewEmbeddedLoader(),
		Logger:       logrus.New(),
		Clipboard:    clipboard.New(nil).Writer,
		NewCompleter: newCompletionClient,
	}
}

func newCompletionClient(cfg completion.Config, logger logrus.FieldLogger) (server.Completer, error) {
	c, err := completion.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}
