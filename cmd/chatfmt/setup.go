package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/config"
	"github.com/alnah/go-chatfmt/internal/hints"
	"github.com/alnah/go-chatfmt/internal/history"
	"github.com/alnah/go-chatfmt/internal/server"
)

// completionRetries is passed to the model client.
const completionRetries = 2

// settings is the resolved configuration of one command run.
type settings struct {
	cfg    *config.Config
	env    *envConfig
	logger *logrus.Logger
}

// loadSettings resolves configuration with the precedence
// CLI flags > env vars > config file > defaults, and configures logging.
// Commands apply their own flags on the returned config.
func loadSettings(common commonFlags, env *Environment) (*settings, error) {
	envCfg := loadEnvConfig()
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	switch {
	case name != "":
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(searchedConfigPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	case env.Config != nil:
		copied := *env.Config
		cfg = &copied
	default:
		cfg = config.DefaultConfig()
	}

	applyEnvConfig(envCfg, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &settings{cfg: cfg, env: envCfg, logger: configureLogger(env, common)}, nil
}

// configureLogger sets the level and output of the environment logger.
func configureLogger(env *Environment, common commonFlags) *logrus.Logger {
	logger := env.Logger
	if logger == nil {
		logger = logrus.New()
	}
	logger.SetOutput(env.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch {
	case common.quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case common.verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func searchedConfigPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := config.UserDir(); err == nil {
		paths = append(paths, filepath.Join(dir, name+".yaml"))
	}
	return paths
}

// newFormatter builds a Formatter from the charset and label settings.
func (s *settings) newFormatter(opts ...chatfmt.Option) (*chatfmt.Formatter, error) {
	all := []chatfmt.Option{
		chatfmt.WithLogger(s.logger),
		chatfmt.WithLabels(chatfmt.Labels{Plain: s.cfg.Labels.Plain, Copy: s.cfg.Labels.Copy}),
	}
	if s.cfg.Charset.Disabled {
		all = append(all, chatfmt.WithoutCharsetFilter())
	}
	if len(s.cfg.Charset.ExtraRanges) > 0 {
		all = append(all, chatfmt.WithExtraRanges(s.cfg.Charset.ExtraRanges...))
	}
	if s.cfg.Charset.KeepEntities {
		all = append(all, chatfmt.WithoutEntityDecoding())
	}
	return chatfmt.NewFormatter(append(all, opts...)...)
}

// newCompleter builds the model client. The API key comes only from the
// environment.
func (s *settings) newCompleter(env *Environment, timeout time.Duration) (server.Completer, error) {
	if timeout <= 0 {
		timeout = time.Duration(s.cfg.Model.Timeout) * time.Second
	}
	c, err := env.NewCompleter(completion.Config{
		BaseURL:     s.cfg.Model.BaseURL,
		APIKey:      s.env.APIKey,
		Model:       s.cfg.Model.Name,
		MaxTokens:   s.cfg.Model.MaxTokens,
		Temperature: s.cfg.Model.Temperature,
		Timeout:     timeout,
		MaxRetries:  completionRetries,
	}, s.logger)
	if errors.Is(err, completion.ErrNoAPIKey) {
		return nil, fmt.Errorf("%w%s", err, hints.ForAPIKey())
	}
	return c, err
}

// openHistory opens the configured history store.
func (s *settings) openHistory() (*history.Store, error) {
	path, err := s.cfg.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", history.ErrHistoryIO, err)
	}
	return history.NewStore(path, s.cfg.History.MaxChats, s.logger)
}

// copyLabel returns the copy trigger text shown on pages.
func (s *settings) copyLabel() string {
	if s.cfg.Labels.Copy != "" {
		return s.cfg.Labels.Copy
	}
	return chatfmt.DefaultCopyLabel
}
