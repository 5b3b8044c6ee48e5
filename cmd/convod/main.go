// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Command convod runs the conversational backend: a chat endpoint backed by
// an Azure OpenAI deployment with weather and news function calling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmolins/convo/internal/app"
	"github.com/dmolins/convo/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convod: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convod: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "convod: %v\n", err)
		os.Exit(1)
	}
}
