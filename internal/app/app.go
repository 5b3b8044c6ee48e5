// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package app wires configuration, telemetry, providers and the HTTP server
// into a runnable service.
package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmolins/convo/pkg/api"
	"github.com/dmolins/convo/pkg/config"
	"github.com/dmolins/convo/pkg/engine"
	"github.com/dmolins/convo/pkg/news"
	"github.com/dmolins/convo/pkg/session"
	"github.com/dmolins/convo/pkg/telemetry"
	"github.com/dmolins/convo/pkg/tools"
	"github.com/dmolins/convo/pkg/weather"
	"github.com/dmolins/convo/providers/azure"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// App holds the assembled service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *api.Server
	shutdown telemetry.ShutdownFunc
}

// New validates the config and assembles every component. It fails fast:
// a missing model setting is reported here, not on the first chat request.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := telemetry.ConfigureSlog(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.Init(cfg.Telemetry.ServiceName, Version, cfg.Telemetry.Exporter)
	if err != nil {
		return nil, err
	}

	provider := azure.New(azure.Config{
		Endpoint:   cfg.Model.Endpoint,
		APIKey:     cfg.Model.APIKey,
		APIVersion: cfg.Model.APIVersion,
		Deployment: cfg.Model.Deployment,
		MaxRetries: cfg.Model.MaxRetries,
	})

	weatherClient := weather.NewClient(cfg.Weather.GeocodeURL, cfg.Weather.ForecastURL, cfg.Weather.Timeout)
	newsClient := news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Timeout)

	registry := tools.NewRegistry(
		tools.NewWeatherTool(weatherClient),
		tools.NewNewsSearchTool(newsClient),
		tools.NewTopHeadlinesTool(newsClient),
	)

	store := session.NewStore()
	eng := engine.New(provider, registry, store, cfg.Model.Deployment,
		engine.WithTemperature(cfg.Model.Temperature),
		engine.WithTimeout(cfg.Model.Timeout),
	)

	server := api.NewServer(cfg.Server.Addr, eng, weatherClient, newsClient, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		server:   server,
		shutdown: shutdown,
	}, nil
}

// Run serves until ctx is cancelled, then drains the server and flushes
// telemetry.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		a.flush()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx := context.Background()
	err := a.server.Shutdown(shutdownCtx)
	a.flush()
	return err
}

func (a *App) flush() {
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}
}
