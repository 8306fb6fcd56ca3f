// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package learn provides the feedback collaborator the compression engine
// reports into after every run.
package learn

import (
	"log/slog"
	"sync"
)

// Tuner receives compression outcomes and adapts internal parameters.
//
// The engine treats the tuner as fire-and-forget: it reports the signed
// deviation from the target ratio after each run and never reads tuner
// state back during the run itself.
type Tuner interface {
	// RecordEvent reports one outcome. delta is the signed deviation from
	// the target (positive means the run beat the target); label names the
	// event source for diagnostics.
	RecordEvent(delta float32, label string)

	// Adapt nudges the learning rate given a measured improvement.
	Adapt(improvement float32)
}

// EMATuner tracks an exponential moving average of outcome deltas and
// adapts its learning rate toward whichever direction improves outcomes.
//
// # Thread Safety
//
// Safe for concurrent use.
type EMATuner struct {
	mu      sync.Mutex
	rate    float32
	minRate float32
	maxRate float32
	average float32
	history []float32
	cap     int
	logger  *slog.Logger
}

// NewEMATuner returns a tuner with the given initial learning rate,
// clamped to [minRate, maxRate]. History is bounded; the oldest entries
// fall off first.
func NewEMATuner(rate, minRate, maxRate float32, historyCap int) *EMATuner {
	if minRate > maxRate {
		minRate, maxRate = maxRate, minRate
	}
	if rate < minRate {
		rate = minRate
	}
	if rate > maxRate {
		rate = maxRate
	}
	if historyCap <= 0 {
		historyCap = 100
	}
	return &EMATuner{
		rate:    rate,
		minRate: minRate,
		maxRate: maxRate,
		cap:     historyCap,
		logger:  slog.Default().With("component", "ema_tuner"),
	}
}

// RecordEvent folds one outcome into the moving average.
func (t *EMATuner) RecordEvent(delta float32, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.average = t.average*(1-t.rate) + delta*t.rate
	t.history = append(t.history, delta)
	if len(t.history) > t.cap {
		t.history = t.history[len(t.history)-t.cap:]
	}
	t.logger.Debug("recorded event",
		"label", label,
		"delta", delta,
		"average", t.average,
	)
}

// Adapt scales the learning rate by the measured improvement, clamped to
// the configured bounds. Positive improvement raises the rate, negative
// lowers it.
func (t *EMATuner) Adapt(improvement float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rate *= 1 + improvement
	if t.rate < t.minRate {
		t.rate = t.minRate
	}
	if t.rate > t.maxRate {
		t.rate = t.maxRate
	}
}

// Average returns the current moving average of deltas.
func (t *EMATuner) Average() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.average
}

// Rate returns the current learning rate.
func (t *EMATuner) Rate() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

// HistoryLen returns the number of retained outcomes.
func (t *EMATuner) HistoryLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}

// NopTuner ignores every event. It is the default collaborator when no
// learner is wired in.
type NopTuner struct{}

// RecordEvent implements Tuner.
func (NopTuner) RecordEvent(float32, string) {}

// Adapt implements Tuner.
func (NopTuner) Adapt(float32) {}
