package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.BaseURL != DefaultBaseURL {
		t.Errorf("Model.BaseURL = %q, want %q", cfg.Model.BaseURL, DefaultBaseURL)
	}
	if cfg.Model.MaxTokens != 2048 {
		t.Errorf("Model.MaxTokens = %d, want 2048", cfg.Model.MaxTokens)
	}
	if cfg.Model.ContextTurns != 7 {
		t.Errorf("Model.ContextTurns = %d, want 7", cfg.Model.ContextTurns)
	}
	if cfg.Charset.Disabled {
		t.Error("Charset.Disabled = true, want false")
	}
	if cfg.Labels.Plain != "" || cfg.Labels.Copy != "" {
		t.Errorf("Labels = %+v, want empty (formatter defaults)", cfg.Labels)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() unexpected error: %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		maxLength int
		wantErr   bool
	}{
		{
			name:      "empty value is valid",
			fieldName: "test",
			value:     "",
			maxLength: 10,
			wantErr:   false,
		},
		{
			name:      "value at limit is valid",
			fieldName: "test",
			value:     "1234567890",
			maxLength: 10,
			wantErr:   false,
		},
		{
			name:      "value over limit returns error",
			fieldName: "test.field",
			value:     "12345678901",
			maxLength: 10,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength(tt.fieldName, tt.value, tt.maxLength)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name: "valid extra ranges",
			mutate: func(c *Config) {
				c.Charset.ExtraRanges = []string{"U+1F600-U+1F64F", "2764"}
			},
		},
		{
			name:    "malformed range",
			mutate:  func(c *Config) { c.Charset.ExtraRanges = []string{"emoji"} },
			wantErr: ErrInvalidValue,
		},
		{
			name: "too many ranges",
			mutate: func(c *Config) {
				for i := 0; i <= MaxExtraRanges; i++ {
					c.Charset.ExtraRanges = append(c.Charset.ExtraRanges, "U+2764")
				}
			},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "label too long",
			mutate:  func(c *Config) { c.Labels.Copy = strings.Repeat("x", MaxLabelLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "multiline label",
			mutate:  func(c *Config) { c.Labels.Plain = "a\nb" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "base URL without scheme",
			mutate:  func(c *Config) { c.Model.BaseURL = "api.groq.com/openai/v1" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "base URL with file scheme",
			mutate:  func(c *Config) { c.Model.BaseURL = "file:///etc/passwd" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "system prompt too long",
			mutate:  func(c *Config) { c.Model.SystemPrompt = strings.Repeat("a", MaxSystemPromptLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.Model.MaxTokens = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Model.Temperature = 2.5 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "context turns out of range",
			mutate:  func(c *Config) { c.Model.ContextTurns = MaxContextTurns + 1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Server.RateLimit = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative burst",
			mutate:  func(c *Config) { c.Server.Burst = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "max chats out of range",
			mutate:  func(c *Config) { c.History.MaxChats = MaxChatsLimit + 1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "date format preset",
			mutate: func(c *Config) { c.History.DateFormat = "european" },
		},
		{
			name:    "date format unclosed bracket",
			mutate:  func(c *Config) { c.History.DateFormat = "[YYYY" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "output dir too long",
			mutate:  func(c *Config) { c.Output.DefaultDir = strings.Repeat("d", MaxPathLength+1) },
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		content := `charset:
  extraRanges: ["U+1F600-U+1F64F"]
labels:
  plain: "TEXTO"
  copy: "COPIAR"
model:
  name: "llama-3.3-70b-versatile"
  systemPrompt: "Sé breve."
server:
  addr: ":9090"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if len(cfg.Charset.ExtraRanges) != 1 || cfg.Charset.ExtraRanges[0] != "U+1F600-U+1F64F" {
			t.Errorf("Charset.ExtraRanges = %v, want [U+1F600-U+1F64F]", cfg.Charset.ExtraRanges)
		}
		if cfg.Labels.Plain != "TEXTO" || cfg.Labels.Copy != "COPIAR" {
			t.Errorf("Labels = %+v, want TEXTO/COPIAR", cfg.Labels)
		}
		if cfg.Model.Name != "llama-3.3-70b-versatile" {
			t.Errorf("Model.Name = %q, want %q", cfg.Model.Name, "llama-3.3-70b-versatile")
		}
		if cfg.Model.SystemPrompt != "Sé breve." {
			t.Errorf("Model.SystemPrompt = %q, want %q", cfg.Model.SystemPrompt, "Sé breve.")
		}
		if cfg.Server.Addr != ":9090" {
			t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9090")
		}
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		if err := os.WriteFile(configPath, []byte("labels:\n  copy: \"C\"\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Model.BaseURL != DefaultBaseURL {
			t.Errorf("Model.BaseURL = %q, want %q", cfg.Model.BaseURL, DefaultBaseURL)
		}
		if cfg.Model.ContextTurns != DefaultContextTurns {
			t.Errorf("Model.ContextTurns = %d, want %d", cfg.Model.ContextTurns, DefaultContextTurns)
		}
	})

	t.Run("loads input and output directories", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		content := `input:
  defaultDir: "/path/to/input"
output:
  defaultDir: "/path/to/output"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Input.DefaultDir != "/path/to/input" {
			t.Errorf("Input.DefaultDir = %q, want %q", cfg.Input.DefaultDir, "/path/to/input")
		}
		if cfg.Output.DefaultDir != "/path/to/output" {
			t.Errorf("Output.DefaultDir = %q, want %q", cfg.Output.DefaultDir, "/path/to/output")
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		if err := os.WriteFile(configPath, []byte("model:\n  apiKey: \"secret\"\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		if err := os.WriteFile(configPath, []byte("charset:\n  extraRanges: [\"U+XYZ\"]\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("config name resolves in current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.WriteFile("work.yml", []byte("server:\n  addr: \":7000\"\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig("work")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Server.Addr != ":7000" {
			t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":7000")
		}
	})

	t.Run("unknown config name lists searched paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("missing-config")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "missing-config.yaml") {
			t.Errorf("error = %v, want searched paths", err)
		}
	})
}

func TestConfig_HistoryPath(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.History.Path = "/tmp/chats.json"

		got, err := cfg.HistoryPath()
		if err != nil {
			t.Fatalf("HistoryPath() error = %v", err)
		}
		if got != "/tmp/chats.json" {
			t.Errorf("HistoryPath() = %q, want %q", got, "/tmp/chats.json")
		}
	})

	t.Run("default under user config dir", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		got, err := DefaultConfig().HistoryPath()
		if err != nil {
			t.Fatalf("HistoryPath() error = %v", err)
		}
		if filepath.Base(got) != "history.json" || filepath.Base(filepath.Dir(got)) != AppDirName {
			t.Errorf("HistoryPath() = %q, want .../%s/history.json", got, AppDirName)
		}
	})
}
