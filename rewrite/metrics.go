// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for compression runs.
var (
	tracer = otel.Tracer("gamma.rewrite")
	meter  = otel.Meter("gamma.rewrite")
)

// Metrics for compression runs.
var (
	runsTotal    metric.Int64Counter
	runRatio     metric.Float64Histogram
	passDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runsTotal, err = meter.Int64Counter(
			"rewrite_runs_total",
			metric.WithDescription("Total number of compression runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runRatio, err = meter.Float64Histogram(
			"rewrite_compression_ratio",
			metric.WithDescription("Compression ratio per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passDuration, err = meter.Float64Histogram(
			"rewrite_pass_duration_seconds",
			metric.WithDescription("Duration of individual rewrite passes"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startCompressSpan creates a span for a compression run.
func startCompressSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Compress",
		trace.WithAttributes(
			attribute.Int("rewrite.node_count", nodeCount),
		),
	)
}

// recordPass records metrics for one completed pass.
func recordPass(ctx context.Context, name string, d time.Duration, rewrites int) {
	if err := initMetrics(); err != nil {
		return
	}
	passDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("pass", name),
		attribute.Bool("effective", rewrites > 0),
	))
}

// recordRun sets result attributes on the run span and records metrics.
func recordRun(ctx context.Context, span trace.Span, ratio float64, verified bool) {
	span.SetAttributes(
		attribute.Float64("rewrite.ratio", ratio),
		attribute.Bool("rewrite.verified", verified),
	)
	if err := initMetrics(); err != nil {
		return
	}
	runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("verified", verified),
	))
	runRatio.Record(ctx, ratio)
}
