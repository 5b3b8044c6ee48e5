// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmolins/convo/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected server addr %q", cfg.Server.Addr)
	}
	if cfg.Model.Temperature != 0.2 {
		t.Errorf("unexpected temperature %v", cfg.Model.Temperature)
	}
	if cfg.Model.Timeout != 60*time.Second {
		t.Errorf("unexpected model timeout %v", cfg.Model.Timeout)
	}
	if cfg.Weather.GeocodeURL == "" || cfg.Weather.ForecastURL == "" {
		t.Error("weather URLs must default to the public endpoints")
	}
	if cfg.News.BaseURL != "https://newsdata.io/api/1" {
		t.Errorf("unexpected news base url %q", cfg.News.BaseURL)
	}
	if cfg.Telemetry.Exporter != "stdout" {
		t.Errorf("unexpected telemetry exporter %q", cfg.Telemetry.Exporter)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONVO_MODEL_API_KEY", "secret")
	t.Setenv("CONVO_MODEL_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("CONVO_SERVER_ADDR", ":9999")
	t.Setenv("CONVO_MODEL_TIMEOUT", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Model.APIKey != "secret" {
		t.Errorf("api key not loaded from env: %q", cfg.Model.APIKey)
	}
	if cfg.Model.Endpoint != "https://example.openai.azure.com" {
		t.Errorf("endpoint not loaded from env: %q", cfg.Model.Endpoint)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server addr not overridden: %q", cfg.Server.Addr)
	}
	if cfg.Model.Timeout != 5*time.Second {
		t.Errorf("duration not parsed from env: %v", cfg.Model.Timeout)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "convo.yaml")
	data := []byte("server:\n  addr: \":7070\"\nmodel:\n  deployment: file-deployment\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONVO_MODEL_DEPLOYMENT", "env-deployment")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("file value not applied: %q", cfg.Server.Addr)
	}
	if cfg.Model.Deployment != "env-deployment" {
		t.Errorf("env must win over file: %q", cfg.Model.Deployment)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	ce := errors.AsError(err)
	if ce == nil || ce.Code != errors.CodeConfig {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"model.endpoint", "model.api_key", "model.api_version", "model.deployment"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing setting %q not reported in %q", want, msg)
		}
	}

	ce := errors.AsError(err)
	if ce == nil || ce.Code != errors.CodeConfig {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
}

func TestValidate_PartialMissing(t *testing.T) {
	cfg := &Config{}
	cfg.Model.Endpoint = "https://example.openai.azure.com"
	cfg.Model.APIKey = "secret"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if strings.Contains(msg, "model.endpoint") || strings.Contains(msg, "model.api_key") {
		t.Errorf("present settings reported as missing: %q", msg)
	}
	for _, want := range []string{"model.api_version", "model.deployment"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing setting %q not reported in %q", want, msg)
		}
	}
}

func TestValidate_Complete(t *testing.T) {
	cfg := &Config{}
	cfg.Model.Endpoint = "https://example.openai.azure.com"
	cfg.Model.APIKey = "secret"
	cfg.Model.APIVersion = "2024-06-01"
	cfg.Model.Deployment = "gpt-4o"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
