// Package server serves the chat page and the formatting API over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/history"
)

// Sentinel errors for server construction.
var (
	ErrNoFormatter = errors.New("formatter is required")
	ErrNoPage      = errors.New("page is required")
)

const (
	bodyLimit       = "1M"
	shutdownTimeout = 10 * time.Second
	defaultTitle    = "chatfmt"
)

// Completer sends chat completions. *completion.Client implements it.
type Completer interface {
	SendCompletion(ctx context.Context, messages []completion.Message) (string, error)
	Warmup(ctx context.Context) bool
}

// Options configures a Server.
type Options struct {
	Formatter *chatfmt.Formatter // required
	Page      *assets.Page       // required
	History   *history.Store     // nil disables chat persistence
	Completer Completer          // nil disables /api/chats/:id/messages and /api/warmup

	Title        string
	CopyLabel    string
	SystemPrompt string
	ContextTurns int

	RateLimit float64 // requests per second per client on /api; 0 disables
	Burst     int

	Metrics http.Handler // served on /metrics when set
	Logger  logrus.FieldLogger
}

// Server is the HTTP front end.
type Server struct {
	e      *echo.Echo
	opts   Options
	logger logrus.FieldLogger
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Formatter == nil {
		return nil, ErrNoFormatter
	}
	if opts.Page == nil {
		return nil, ErrNoPage
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.CopyLabel == "" {
		opts.CopyLabel = chatfmt.DefaultCopyLabel
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		e:      e,
		opts:   opts,
		logger: opts.Logger.WithField("component", "server"),
	}

	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))

	e.GET("/", s.indexPage)
	e.GET("/chats/:id", s.chatPage)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	api := e.Group("/api", middleware.BodyLimit(bodyLimit))
	if opts.RateLimit > 0 {
		api.Use(rateLimit(newClientLimiter(opts.RateLimit, opts.Burst)))
	}

	// Format raw markdown
	api.POST("/format", s.format)
	// List chats
	api.GET("/chats", s.listChats)
	// Get a chat by id
	api.GET("/chats/:id", s.getChat)
	// Delete a chat by id
	api.DELETE("/chats/:id", s.deleteChat)
	// Send a prompt; "new" starts a chat
	api.POST("/chats/:id/messages", s.sendMessage)
	// Ask the model endpoint to load the model
	api.POST("/warmup", s.warmup)

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("shutdown failed")
		}
	}()

	s.logger.WithField("addr", ln.Addr().String()).Info("listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.WithError(err).Error("server failed")
		return err
	}
	return nil
}
