// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for candidate analysis.
var (
	tracer = otel.Tracer("gamma.patterns")
	meter  = otel.Meter("gamma.patterns")
)

// Metrics for candidate analysis.
var (
	analyzeTotal    metric.Int64Counter
	groupsFound     metric.Int64Histogram
	candidatesFound metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analyzeTotal, err = meter.Int64Counter(
			"patterns_analyze_total",
			metric.WithDescription("Total number of candidate analysis runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		groupsFound, err = meter.Int64Histogram(
			"patterns_signature_groups",
			metric.WithDescription("Signature groups discovered per analysis"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidatesFound, err = meter.Int64Histogram(
			"patterns_candidates",
			metric.WithDescription("Profitable candidates accepted per analysis"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAnalyzeSpan creates a span for a candidate analysis run.
func startAnalyzeSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(
			attribute.Int("patterns.node_count", nodeCount),
		),
	)
}

// recordAnalyzeResult sets result attributes on the span and records metrics.
func recordAnalyzeResult(ctx context.Context, span trace.Span, groupCount, candidateCount int) {
	span.SetAttributes(
		attribute.Int("patterns.group_count", groupCount),
		attribute.Int("patterns.candidate_count", candidateCount),
	)
	if err := initMetrics(); err != nil {
		return
	}
	analyzeTotal.Add(ctx, 1)
	groupsFound.Record(ctx, int64(groupCount))
	candidatesFound.Record(ctx, int64(candidateCount))
}
