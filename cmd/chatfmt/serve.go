package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/metrics"
	"github.com/alnah/go-chatfmt/internal/server"
)

// runServeCmd serves the chat page and API until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, _, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	s.logger.SetFormatter(&logrus.JSONFormatter{})
	if !flags.common.quiet && !flags.common.verbose {
		s.logger.SetLevel(logrus.InfoLevel)
	}

	addr := s.cfg.Server.Addr
	if flags.addr != "" {
		addr = flags.addr
	}
	assetPath := s.cfg.Server.AssetsDir
	if flags.assetPath != "" {
		assetPath = flags.assetPath
	}

	var loader assets.AssetLoader = env.AssetLoader
	if assetPath != "" {
		resolver, err := assets.NewAssetResolver(assetPath)
		if err != nil {
			return err
		}
		if resolver.HasCustomLoader() {
			s.logger.WithField("path", assetPath).Info("using custom page assets")
		}
		loader = resolver
	}
	page, err := assets.NewPage(loader, assets.DefaultStyleName, assets.DefaultTemplateName)
	if err != nil {
		return err
	}

	var formatOpts []chatfmt.Option
	var metricsHandler http.Handler
	if s.cfg.Server.Metrics && !flags.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		formatOpts = append(formatOpts, chatfmt.WithObserver(rec))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	f, err := s.newFormatter(formatOpts...)
	if err != nil {
		return err
	}
	store, err := s.openHistory()
	if err != nil {
		return err
	}

	model, err := s.newCompleter(env, 0)
	if errors.Is(err, completion.ErrNoAPIKey) {
		s.logger.Warn("no API key, serving read-only history")
		model, err = nil, nil
	}
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Formatter:    f,
		Page:         page,
		History:      store,
		Completer:    model,
		Title:        "chatfmt",
		CopyLabel:    s.copyLabel(),
		SystemPrompt: s.cfg.Model.SystemPrompt,
		ContextTurns: s.cfg.Model.ContextTurns,
		RateLimit:    s.cfg.Server.RateLimit,
		Burst:        s.cfg.Server.Burst,
		Metrics:      metricsHandler,
		Logger:       s.logger,
	})
	if err != nil {
		return err
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Serving on http://%s\n", ln.Addr())
	}
	return srv.Serve(ctx, ln)
}
