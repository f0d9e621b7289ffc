package main

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunServeCmd_ShutsDownOnCancel(t *testing.T) {
	t.Setenv("CHATFMT_API_KEY", "")
	te := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := runServeCmd(ctx, []string{"-a", "127.0.0.1:0", "--no-metrics"}, te.Environment)
	if err != nil {
		t.Fatalf("runServeCmd() error = %v", err)
	}
	if !strings.Contains(te.stdout.String(), "Serving on http://127.0.0.1:") {
		t.Errorf("stdout = %q, want listen address", te.stdout.String())
	}
}

func TestRunServeCmd_BadAddress(t *testing.T) {
	t.Setenv("CHATFMT_API_KEY", "k")
	te := newTestEnv(t)

	err := runServeCmd(context.Background(), []string{"-a", "256.0.0.1:bad"}, te.Environment)
	if err == nil || !strings.Contains(err.Error(), "listening on") {
		t.Errorf("runServeCmd() error = %v, want listen error", err)
	}
}
