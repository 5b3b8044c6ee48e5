// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package tools

import (
	"context"

	"github.com/dmolins/convo/pkg/weather"
)

// WeatherLookup is the part of the weather client the tool needs.
type WeatherLookup interface {
	CurrentByLocation(ctx context.Context, location string) (*weather.Report, error)
}

// NewWeatherTool builds the get_weather capability.
func NewWeatherTool(client WeatherLookup) Tool {
	return Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a location.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City or place name, free form, e.g. 'Paris' or 'Austin, Texas'",
				},
			},
			"required": []string{"location"},
		},
		Exec: func(ctx context.Context, args map[string]any) (any, error) {
			return client.CurrentByLocation(ctx, stringArg(args, "location"))
		},
	}
}
