// Package server exposes the engine and the check history over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dropurl/dropurl/internal/audit"
	"github.com/dropurl/dropurl/internal/config"
	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/storage"
	"github.com/dropurl/dropurl/internal/summarizer"
)

// History reads stored checks.
type History interface {
	GetCheck(ctx context.Context, id int64) (*storage.CheckRecord, error)
	ListChecks(ctx context.Context, limit, offset int) ([]storage.CheckSummary, error)
}

// Deps are the collaborators behind the routes. Recorder and History may
// be nil when storage is disabled.
type Deps struct {
	Engine     *engine.Engine
	Fetcher    fetcher.Fetcher
	Recorder   *audit.Recorder
	History    History
	Summarizer summarizer.Summarizer
	Logger     *slog.Logger
}

// Server is the HTTP front of the engine
type Server struct {
	app    *fiber.App
	config config.ServerConfig
	deps   Deps
	logger *slog.Logger
}

// New creates a server with all routes registered
func New(cfg config.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "dropurl",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s := &Server{app: app, config: cfg, deps: deps, logger: logger}

	app.Use(s.requestLogger)

	app.Get("/healthz", s.handleHealth)
	app.Post("/run-checks", s.handleRunChecks)
	app.Post("/crawl-check", s.handleCrawl)
	app.Post("/validate-url", s.handleValidateURL)
	app.Post("/ai-summary", s.handleSummary)
	app.Post("/checks", s.handleRecord)
	app.Get("/checks", s.handleListChecks)
	app.Get("/checks/:id", s.handleGetCheck)

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.config.Addr)
		errCh <- s.app.Listen(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	reqID := c.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.New().String()
	}
	c.Locals("request_id", reqID)
	c.Set("X-Request-Id", reqID)

	err := c.Next()
	if err != nil {
		// Let the error handler write the response before logging its status
		if herr := errorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	attrs := []any{
		"request_id", reqID,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.Info("request", attrs...)
	return nil
}

type errorResponse struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case engine.KindOf(err) == engine.InvalidRequest:
		code = fiber.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, storage.ErrNotFound):
		code = fiber.StatusNotFound
		msg = err.Error()
	case errors.Is(err, audit.ErrNoURLs):
		code = fiber.StatusBadRequest
		msg = err.Error()
	}

	return c.Status(code).JSON(errorResponse{Error: true, ErrorMessage: msg})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
