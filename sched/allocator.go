// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sched tracks accelerator memory so the compression engine can
// decide where heavy passes run.
//
// # Description
//
// The engine asks the allocator before offloading a large tree; a refusal
// is an ordinary answer, not an error, and the engine falls back to the
// CPU path. Allocation here is bookkeeping only: the pool tracks who holds
// how many bytes per device, it never touches real device memory.
package sched

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrInsufficientMemory is returned when no device can hold a request.
var ErrInsufficientMemory = errors.New("sched: insufficient device memory")

// ErrUnknownOwner is returned when releasing an owner with no allocation.
var ErrUnknownOwner = errors.New("sched: unknown allocation owner")

// Allocator answers capacity questions for the compression engine.
type Allocator interface {
	// CanAllocate reports whether size bytes could be granted right now.
	CanAllocate(size int64) bool

	// Allocate reserves size bytes under the given owner tag.
	Allocate(size int64, owner string) error

	// Release frees everything held by the owner. Unknown owners are a
	// no-op.
	Release(owner string)
}

// Device is one tracked accelerator.
type Device struct {
	// Name identifies the device in logs.
	Name string

	// Capacity is the total trackable bytes.
	Capacity int64

	used int64
}

// Free returns the unreserved bytes.
func (d *Device) Free() int64 { return d.Capacity - d.used }

// GPUPool is a bookkeeping allocator over a fixed device set.
//
// # Thread Safety
//
// Safe for concurrent use. The mutex is held only for table updates.
type GPUPool struct {
	mu      sync.Mutex
	devices []*Device

	// owners maps owner tag to (device index, bytes).
	owners map[string]allocation

	logger *slog.Logger
}

type allocation struct {
	device int
	bytes  int64
}

// NewGPUPool returns a pool over the given devices. Devices with
// non-positive capacity are dropped.
func NewGPUPool(devices ...Device) *GPUPool {
	p := &GPUPool{
		owners: make(map[string]allocation),
		logger: slog.Default().With("component", "gpu_pool"),
	}
	for i := range devices {
		if devices[i].Capacity <= 0 {
			continue
		}
		d := devices[i]
		p.devices = append(p.devices, &d)
	}
	return p
}

// CanAllocate reports whether any device has size bytes free.
func (p *GPUPool) CanAllocate(size int64) bool {
	if size <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pick(size) >= 0
}

// Allocate reserves size bytes on the first device that fits. An owner may
// hold at most one allocation; a second Allocate for the same owner fails.
func (p *GPUPool) Allocate(size int64, owner string) error {
	if size <= 0 {
		return fmt.Errorf("%w: non-positive size %d", ErrInsufficientMemory, size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, held := p.owners[owner]; held {
		return fmt.Errorf("sched: owner %q already holds an allocation", owner)
	}
	i := p.pick(size)
	if i < 0 {
		return fmt.Errorf("%w: %d bytes requested", ErrInsufficientMemory, size)
	}
	p.devices[i].used += size
	p.owners[owner] = allocation{device: i, bytes: size}
	p.logger.Debug("allocated",
		"device", p.devices[i].Name,
		"owner", owner,
		"bytes", size,
	)
	return nil
}

// Release frees the owner's allocation. Unknown owners are a no-op.
func (p *GPUPool) Release(owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.owners[owner]
	if !ok {
		return
	}
	p.devices[a.device].used -= a.bytes
	delete(p.owners, owner)
	p.logger.Debug("released",
		"device", p.devices[a.device].Name,
		"owner", owner,
		"bytes", a.bytes,
	)
}

// Free returns the total free bytes across all devices.
func (p *GPUPool) Free() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var free int64
	for _, d := range p.devices {
		free += d.Free()
	}
	return free
}

// pick returns the index of the first device with size bytes free, or -1.
// First-fit over a fixed device order keeps placement deterministic.
func (p *GPUPool) pick(size int64) int {
	for i, d := range p.devices {
		if d.Free() >= size {
			return i
		}
	}
	return -1
}

// NopAllocator refuses every request; the engine's CPU fallback handles
// everything.
type NopAllocator struct{}

// CanAllocate implements Allocator.
func (NopAllocator) CanAllocate(int64) bool { return false }

// Allocate implements Allocator.
func (NopAllocator) Allocate(int64, string) error { return ErrInsufficientMemory }

// Release implements Allocator.
func (NopAllocator) Release(string) {}
