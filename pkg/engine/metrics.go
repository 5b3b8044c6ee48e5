// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce      sync.Once
	turnCounter      metric.Int64Counter
	turnErrorCounter metric.Int64Counter
	roundHistogram   metric.Int64Histogram
	turnLatencyMs    metric.Float64Histogram
	modelLatencyMs   metric.Float64Histogram
	toolLatencyMs    metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("convo/engine")
		turnCounter, _ = meter.Int64Counter("convo.turns.total",
			metric.WithDescription("Total conversation turns"))
		turnErrorCounter, _ = meter.Int64Counter("convo.turns.errors",
			metric.WithDescription("Turns that failed with an engine-level error"))
		roundHistogram, _ = meter.Int64Histogram("convo.turn.rounds",
			metric.WithDescription("Tool-calling rounds consumed per turn"))
		turnLatencyMs, _ = meter.Float64Histogram("convo.turn.latency_ms",
			metric.WithDescription("End-to-end turn latency in milliseconds"))
		modelLatencyMs, _ = meter.Float64Histogram("convo.model.latency_ms",
			metric.WithDescription("Model call latency in milliseconds"))
		toolLatencyMs, _ = meter.Float64Histogram("convo.tool.latency_ms",
			metric.WithDescription("Tool execution latency in milliseconds"))
	})
}
