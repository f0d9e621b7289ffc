package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-chatfmt/internal/config"
)

// envPrefix marks the environment variables chatfmt reads.
const envPrefix = "CHATFMT_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // CHATFMT_CONFIG: config file name or path
	APIKey     string        // CHATFMT_API_KEY: model endpoint key (env only)
	BaseURL    string        // CHATFMT_BASE_URL: OpenAI-compatible endpoint
	Model      string        // CHATFMT_MODEL: model name
	Timeout    time.Duration // CHATFMT_TIMEOUT: completion timeout

	// Tier 2 - Storage and I/O
	HistoryPath string // CHATFMT_HISTORY: chat history file
	InputDir    string // CHATFMT_INPUT_DIR: default input directory
	OutputDir   string // CHATFMT_OUTPUT_DIR: default output directory

	// Tier 3 - Extended
	Addr    string // CHATFMT_ADDR: serve listen address
	Workers int    // CHATFMT_WORKERS: parallel workers
}

// knownEnvVars lists valid CHATFMT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"CHATFMT_CONFIG":   true,
	"CHATFMT_API_KEY":  true,
	"CHATFMT_BASE_URL": true,
	"CHATFMT_MODEL":    true,
	"CHATFMT_TIMEOUT":  true,
	// Tier 2 - Storage and I/O
	"CHATFMT_HISTORY":    true,
	"CHATFMT_INPUT_DIR":  true,
	"CHATFMT_OUTPUT_DIR": true,
	// Tier 3 - Extended
	"CHATFMT_ADDR":    true,
	"CHATFMT_WORKERS": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized CHATFMT_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("CHATFMT_CONFIG"),
		APIKey:     os.Getenv("CHATFMT_API_KEY"),
		BaseURL:    os.Getenv("CHATFMT_BASE_URL"),
		Model:      os.Getenv("CHATFMT_MODEL"),
		// Tier 2
		HistoryPath: os.Getenv("CHATFMT_HISTORY"),
		InputDir:    os.Getenv("CHATFMT_INPUT_DIR"),
		OutputDir:   os.Getenv("CHATFMT_OUTPUT_DIR"),
		// Tier 3
		Addr: os.Getenv("CHATFMT_ADDR"),
	}

	if timeout := os.Getenv("CHATFMT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("CHATFMT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized CHATFMT_* variables.
// Helps catch typos like CHATFMT_APIKEY instead of CHATFMT_API_KEY.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied afterwards.
// This ensures: CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1 - Model
	if env.BaseURL != "" {
		cfg.Model.BaseURL = env.BaseURL
	}
	if env.Model != "" {
		cfg.Model.Name = env.Model
	}
	if env.Timeout > 0 {
		cfg.Model.Timeout = int(env.Timeout.Round(time.Second) / time.Second)
		if cfg.Model.Timeout < 1 {
			cfg.Model.Timeout = 1
		}
	}

	// Tier 2 - Storage and I/O
	if env.HistoryPath != "" {
		cfg.History.Path = env.HistoryPath
	}
	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}

	// Tier 3 - Server
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
}
