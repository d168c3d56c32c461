// Package server provides the codeecho HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/metrics"
	"github.com/temirov/codeecho/internal/tokenizer"
	"github.com/temirov/codeecho/internal/types"
)

// RepositorySource is a commands.Source that can also list branches and repositories.
type RepositorySource interface {
	commands.Source
	ListBranches(ctx context.Context, repository types.Repository) ([]types.BranchSummary, error)
	ListRepositories(ctx context.Context) ([]types.RepositorySummary, error)
}

// SourceFactory builds a source authenticated with the caller's token.
type SourceFactory func(ctx context.Context, token string) (RepositorySource, error)

// Config holds HTTP server configuration.
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	FetchConcurrency int
}

// Server provides HTTP endpoints for codeecho.
type Server struct {
	echo          *echo.Echo
	logger        *zap.Logger
	config        Config
	sourceFactory SourceFactory
	tokenCounter  tokenizer.Counter
}

// NewServer creates a new HTTP server.
func NewServer(sourceFactory SourceFactory, tokenCounter tokenizer.Counter, logger *zap.Logger, cfg Config) (*Server, error) {
	if sourceFactory == nil {
		return nil, errors.New("source factory cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if tokenCounter == nil {
		tokenCounter = tokenizer.ApproximateCounter{}
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &Server{
		echo:          e,
		logger:        logger,
		config:        cfg,
		sourceFactory: sourceFactory,
		tokenCounter:  tokenCounter,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger)
	e.Use(requestMetrics)

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := s.echo.Group("/api")
	api.GET("/folderStructure", s.handleFolderStructure, requireToken)
	api.GET("/fetchRepo", s.handleFetchRepo, requireToken)
	api.GET("/branches", s.handleBranches, requireToken)
	api.GET("/repos", s.handleRepositories, requireToken)
	api.POST("/exclusions/toggle", s.handleToggleExclusions)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
