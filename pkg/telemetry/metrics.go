// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics tracks LLM usage, spend, and external tool activity for a
// design run.
type PipelineMetrics struct {
	// tokenCounter tracks prompt+completion tokens by provider and model.
	tokenCounter metric.Int64Counter

	// costCounter tracks accumulated spend in USD cents by model.
	costCounter metric.Float64Counter

	// toolRunCounter tracks external tool invocations by tool and outcome.
	toolRunCounter metric.Int64Counter

	// toolDuration records wall time per tool invocation.
	toolDuration metric.Float64Histogram

	// roundGauge tracks the current evolutionary design round.
	roundGauge metric.Int64Gauge
}

// NewPipelineMetrics creates the metric instruments on the global meter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("maesd/pipeline")

	tokenCounter, err := meter.Int64Counter(
		"maesd.llm.tokens",
		metric.WithDescription("LLM tokens consumed by provider and model"),
	)
	if err != nil {
		return nil, err
	}

	costCounter, err := meter.Float64Counter(
		"maesd.llm.cost_usd",
		metric.WithDescription("Accumulated LLM spend in USD"),
	)
	if err != nil {
		return nil, err
	}

	toolRunCounter, err := meter.Int64Counter(
		"maesd.tool.runs",
		metric.WithDescription("External tool invocations by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}

	toolDuration, err := meter.Float64Histogram(
		"maesd.tool.duration_seconds",
		metric.WithDescription("Wall time per external tool invocation"),
	)
	if err != nil {
		return nil, err
	}

	roundGauge, err := meter.Int64Gauge(
		"maesd.pipeline.round",
		metric.WithDescription("Current evolutionary design round"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		tokenCounter:   tokenCounter,
		costCounter:    costCounter,
		toolRunCounter: toolRunCounter,
		toolDuration:   toolDuration,
		roundGauge:     roundGauge,
	}, nil
}

// RecordUsage adds token and cost usage for one chat completion.
func (pm *PipelineMetrics) RecordUsage(ctx context.Context, provider, model string, tokens int, costUSD float64) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	pm.tokenCounter.Add(ctx, int64(tokens), attrs)
	pm.costCounter.Add(ctx, costUSD, attrs)
}

// RecordToolRun records one external tool invocation.
func (pm *PipelineMetrics) RecordToolRun(ctx context.Context, tool string, elapsed time.Duration, err error) {
	if pm == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	pm.toolRunCounter.Add(ctx, 1, attrs)
	pm.toolDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRound reports the current design round.
func (pm *PipelineMetrics) RecordRound(ctx context.Context, round int) {
	if pm == nil {
		return
	}
	pm.roundGauge.Record(ctx, int64(round))
}
