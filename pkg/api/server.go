// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package api exposes the HTTP surface: chat, direct weather and news
// lookups, health and a minimal docs page.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmolins/convo/pkg/news"
	"github.com/dmolins/convo/pkg/weather"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Conversation runs one chat turn for a session.
type Conversation interface {
	Turn(ctx context.Context, sessionID, input string) (string, error)
}

// WeatherService resolves a location name to a current-conditions report.
type WeatherService interface {
	CurrentByLocation(ctx context.Context, location string) (*weather.Report, error)
}

// NewsService provides keyword search and top headlines.
type NewsService interface {
	Search(ctx context.Context, q string, opts news.SearchOptions) ([]news.Article, error)
	TopHeadlines(ctx context.Context, opts news.HeadlineOptions) ([]news.Article, error)
}

// Server is the HTTP front of the service.
type Server struct {
	httpServer *http.Server
	engine     Conversation
	weather    WeatherService
	news       NewsService
	logger     *slog.Logger
}

// NewServer wires the handlers onto a ServeMux and returns the server.
func NewServer(addr string, engine Conversation, w WeatherService, n NewsService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  engine,
		weather: w,
		news:    n,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /weather/current", s.handleWeatherCurrent)
	mux.HandleFunc("GET /news/search", s.handleNewsSearch)
	mux.HandleFunc("GET /news/top", s.handleNewsTop)
	mux.HandleFunc("GET /docs", s.handleDocs)
	mux.HandleFunc("GET /swagger", s.handleRedirectDocs)
	mux.HandleFunc("GET /{$}", s.handleRedirectDocs)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
