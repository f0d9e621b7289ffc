package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-chatfmt/internal/dateutil"
	"github.com/alnah/go-chatfmt/internal/fileutil"
	"github.com/alnah/go-chatfmt/internal/pipeline"
	"github.com/alnah/go-chatfmt/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDirName is the directory under the user config dir holding config
// files and the default chat history.
const AppDirName = "go-chatfmt"

// Field length limits.
const (
	MaxLabelLength        = 32    // Code block header labels
	MaxURLLength          = 2048  // Browser limit
	MaxModelLength        = 200   // "meta-llama/llama-4-scout-17b-16e-instruct"
	MaxSystemPromptLength = 8000  // Custom system instruction
	MaxPathLength         = 4096  // PATH_MAX on Linux
	MaxAddrLength         = 255   // host:port
	MaxExtraRanges        = 64    // charset.extraRanges entries
	MaxContextTurns       = 50    // model.contextTurns
	MaxTokensLimit        = 32768 // model.maxTokens
	MaxChatsLimit         = 10000 // history.maxChats
)

// Defaults applied by DefaultConfig.
const (
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel        = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultMaxTokens    = 2048
	DefaultContextTurns = 7
	DefaultTimeout      = 60 // seconds
	DefaultAddr         = "127.0.0.1:8080"
	DefaultRateLimit    = 2.0 // requests per second per client
	DefaultBurst        = 5
	DefaultMaxChats     = 200
)

// Config holds all configuration for formatting, the model client and the
// preview server.
type Config struct {
	Charset CharsetConfig `yaml:"charset"`
	Labels  LabelsConfig  `yaml:"labels"`
	Model   ModelConfig   `yaml:"model"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
}

// CharsetConfig defines the character allow-list.
type CharsetConfig struct {
	Disabled     bool     `yaml:"disabled"`     // Skip the allow-list entirely
	ExtraRanges  []string `yaml:"extraRanges"`  // "U+1F600-U+1F64F", "U+2764"
	KeepEntities bool     `yaml:"keepEntities"` // Do not decode &lt; &gt; before parsing
}

// LabelsConfig defines user-visible code block strings.
type LabelsConfig struct {
	Plain string `yaml:"plain"` // Label for undetected languages (default: "TEXT")
	Copy  string `yaml:"copy"`  // Copy trigger text (default: "COPY")
}

// ModelConfig defines the OpenAI-compatible completion endpoint.
// The API key is never read from the file; see CHATFMT_API_KEY.
type ModelConfig struct {
	BaseURL      string  `yaml:"baseURL"`
	Name         string  `yaml:"name"`
	SystemPrompt string  `yaml:"systemPrompt"` // Appended to the base instruction
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float64 `yaml:"temperature"`  // 0 = endpoint default
	ContextTurns int     `yaml:"contextTurns"` // Previous exchanges sent as context
	Timeout      int     `yaml:"timeout"`      // Seconds
}

// HistoryConfig defines chat history persistence.
type HistoryConfig struct {
	Path       string `yaml:"path"`       // Empty = <user config dir>/go-chatfmt/history.json
	MaxChats   int    `yaml:"maxChats"`   // Oldest chats are dropped beyond this
	DateFormat string `yaml:"dateFormat"` // Preset (iso, european, us, long) or tokens
}

// ServerConfig defines the HTTP preview service.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rateLimit"` // Requests per second per client
	Burst     int     `yaml:"burst"`
	Metrics   bool    `yaml:"metrics"`   // Expose /metrics
	AssetsDir string  `yaml:"assetsDir"` // Page style/template overrides (empty = built-in)
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// Validate checks field lengths, range syntax and numeric bounds.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := c.validateCharset(); err != nil {
		return err
	}

	for _, f := range []struct {
		name, value string
	}{
		{"labels.plain", c.Labels.Plain},
		{"labels.copy", c.Labels.Copy},
	} {
		if utf8.RuneCountInString(f.value) > MaxLabelLength {
			return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, f.name, utf8.RuneCountInString(f.value), MaxLabelLength)
		}
		if strings.ContainsAny(f.value, "\r\n") {
			return fmt.Errorf("%w: %s must be a single line", ErrInvalidValue, f.name)
		}
	}

	if err := c.validateModel(); err != nil {
		return err
	}

	if err := validateFieldLength("history.path", c.History.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateRange("history.maxChats", c.History.MaxChats, 0, MaxChatsLimit); err != nil {
		return err
	}
	if _, err := dateutil.Layout(c.History.DateFormat); err != nil {
		return fmt.Errorf("%w: history.dateFormat: %v", ErrInvalidValue, err)
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength("server.assetsDir", c.Server.AssetsDir, MaxPathLength); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rateLimit must not be negative, got %.2f", ErrInvalidValue, c.Server.RateLimit)
	}
	if c.Server.Burst < 0 {
		return fmt.Errorf("%w: server.burst must not be negative, got %d", ErrInvalidValue, c.Server.Burst)
	}

	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength)
}

func (c *Config) validateCharset() error {
	if len(c.Charset.ExtraRanges) > MaxExtraRanges {
		return fmt.Errorf("%w: charset.extraRanges has %d entries (max %d)", ErrInvalidValue, len(c.Charset.ExtraRanges), MaxExtraRanges)
	}
	for i, spec := range c.Charset.ExtraRanges {
		if _, err := pipeline.ParseCharRange(spec); err != nil {
			return fmt.Errorf("%w: charset.extraRanges[%d]: %v", ErrInvalidValue, i, err)
		}
	}
	return nil
}

func (c *Config) validateModel() error {
	if err := validateFieldLength("model.baseURL", c.Model.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if c.Model.BaseURL != "" {
		u, err := url.Parse(c.Model.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: model.baseURL must be an http(s) URL, got %q", ErrInvalidValue, c.Model.BaseURL)
		}
	}
	if err := validateFieldLength("model.name", c.Model.Name, MaxModelLength); err != nil {
		return err
	}
	if err := validateFieldLength("model.systemPrompt", c.Model.SystemPrompt, MaxSystemPromptLength); err != nil {
		return err
	}
	if err := validateRange("model.maxTokens", c.Model.MaxTokens, 0, MaxTokensLimit); err != nil {
		return err
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("%w: model.temperature must be between 0 and 2, got %.2f", ErrInvalidValue, c.Model.Temperature)
	}
	if err := validateRange("model.contextTurns", c.Model.ContextTurns, 0, MaxContextTurns); err != nil {
		return err
	}
	return validateRange("model.timeout", c.Model.Timeout, 0, 600)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateRange(fieldName string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidValue, fieldName, lo, hi, value)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:      DefaultBaseURL,
			Name:         DefaultModel,
			MaxTokens:    DefaultMaxTokens,
			ContextTurns: DefaultContextTurns,
			Timeout:      DefaultTimeout,
		},
		History: HistoryConfig{MaxChats: DefaultMaxChats},
		Server: ServerConfig{
			Addr:      DefaultAddr,
			RateLimit: DefaultRateLimit,
			Burst:     DefaultBurst,
			Metrics:   true,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UserDir returns <user config dir>/go-chatfmt.
func UserDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName), nil
}

// HistoryPath returns the configured history file, or the default one in
// the user config directory.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-chatfmt/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userDir, err := UserDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
