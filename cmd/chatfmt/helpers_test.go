package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/config"
	"github.com/alnah/go-chatfmt/internal/server"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and fakes
// ---------------------------------------------------------------------------

// fakeModel answers every completion with a fixed string.
type fakeModel struct {
	mu     sync.Mutex
	answer string
	err    error
	cfg    completion.Config
	got    [][]completion.Message
}

func (m *fakeModel) SendCompletion(_ context.Context, msgs []completion.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, msgs)
	return m.answer, m.err
}

func (m *fakeModel) Warmup(context.Context) bool { return m.err == nil }

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	copied  []string
	model   *fakeModel
	history string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.History.Path = filepath.Join(dir, "history.json")

	te := &testEnv{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		model:   &fakeModel{answer: "Try this:\n\n```go\nfmt.Println(\"hi\")\n```"},
		history: cfg.History.Path,
	}
	te.Environment = &Environment{
		Now:         func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
		Stdin:       strings.NewReader(""),
		Stdout:      te.stdout,
		Stderr:      te.stderr,
		AssetLoader: assets.NewEmbeddedLoader(),
		Config:      cfg,
		Logger:      logrus.New(),
		Clipboard: func(s string) error {
			te.copied = append(te.copied, s)
			return nil
		},
		NewCompleter: func(c completion.Config, _ logrus.FieldLogger) (server.Completer, error) {
			if c.APIKey == "" {
				return nil, completion.ErrNoAPIKey
			}
			te.model.cfg = c
			return te.model, nil
		},
	}
	return te
}

// run executes chatfmt with args and returns the exit code.
func (te *testEnv) run(args ...string) int {
	return runMain(append([]string{"chatfmt"}, args...), te.Environment)
}
