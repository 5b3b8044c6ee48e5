// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package config handles configuration loading: defaults, an optional YAML
// file, then CONVO_* environment variables (CONVO_MODEL_API_KEY -> model.api_key).
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dmolins/convo/pkg/errors"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Model     ModelConfig     `koanf:"model"`
	Weather   WeatherConfig   `koanf:"weather"`
	News      NewsConfig      `koanf:"news"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

// ModelConfig holds the Azure OpenAI connection settings. Endpoint, APIKey,
// APIVersion and Deployment are all required for startup to succeed.
type ModelConfig struct {
	Endpoint    string        `koanf:"endpoint"`
	APIKey      string        `koanf:"api_key"`
	APIVersion  string        `koanf:"api_version"`
	Deployment  string        `koanf:"deployment"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxRetries  int           `koanf:"max_retries"`
}

type WeatherConfig struct {
	GeocodeURL  string        `koanf:"geocode_url"`
	ForecastURL string        `koanf:"forecast_url"`
	Timeout     time.Duration `koanf:"timeout"`
}

// NewsConfig holds the newsdata.io provider settings. APIKey is required
// only when a news endpoint is actually invoked.
type NewsConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type TelemetryConfig struct {
	Exporter    string `koanf:"exporter"` // stdout, none
	ServiceName string `koanf:"service_name"`
}

// Load reads configuration from an optional YAML file and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("server.addr", ":8080")
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("model.temperature", 0.2)
	k.Set("model.timeout", "60s")
	k.Set("model.max_retries", 2)
	k.Set("weather.geocode_url", "https://geocoding-api.open-meteo.com/v1/search")
	k.Set("weather.forecast_url", "https://api.open-meteo.com/v1/forecast")
	k.Set("weather.timeout", "10s")
	k.Set("news.base_url", "https://newsdata.io/api/1")
	k.Set("news.timeout", "10s")
	k.Set("telemetry.exporter", "stdout")
	k.Set("telemetry.service_name", "convo")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeConfig, "loading config file", err).
				WithContext("path", path)
		}
	}

	// 2. Load from ENV (CONVO_MODEL_API_KEY -> model.api_key)
	if err := k.Load(env.Provider("CONVO_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CONVO_"))
		if i := strings.Index(key, "_"); i > 0 {
			key = key[:i] + "." + key[i+1:]
		}
		return key
	}), nil); err != nil {
		return nil, errors.New(errors.CodeConfig, "loading environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(errors.CodeConfig, "unmarshalling config", err)
	}

	return &cfg, nil
}

// Validate checks that every required model setting is present, reporting
// ALL missing names at once so operators fix the environment in one pass.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"model.endpoint", c.Model.Endpoint},
		{"model.api_key", c.Model.APIKey},
		{"model.api_version", c.Model.APIVersion},
		{"model.deployment", c.Model.Deployment},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return errors.New(errors.CodeConfig,
			"missing required configuration values: "+strings.Join(missing, ", "), nil).
			WithContext("missing", missing)
	}
	return nil
}
