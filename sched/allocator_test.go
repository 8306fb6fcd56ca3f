// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sched

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestGPUPool_AllocateRelease(t *testing.T) {
	pool := NewGPUPool(Device{Name: "gpu0", Capacity: 100})

	if err := pool.Allocate(60, "run-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Free() != 40 {
		t.Errorf("free = %d, want 40", pool.Free())
	}

	if err := pool.Allocate(60, "run-b"); !errors.Is(err, ErrInsufficientMemory) {
		t.Errorf("expected ErrInsufficientMemory, got %v", err)
	}

	pool.Release("run-a")
	if pool.Free() != 100 {
		t.Errorf("free after release = %d, want 100", pool.Free())
	}
	if err := pool.Allocate(60, "run-b"); err != nil {
		t.Errorf("allocation after release failed: %v", err)
	}
}

func TestGPUPool_MultiDeviceFirstFit(t *testing.T) {
	pool := NewGPUPool(
		Device{Name: "gpu0", Capacity: 50},
		Device{Name: "gpu1", Capacity: 200},
	)

	// Too big for gpu0, must land on gpu1.
	if err := pool.Allocate(100, "big"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pool.CanAllocate(50) {
		t.Error("gpu0 capacity should still be available")
	}
	if pool.CanAllocate(150) {
		t.Error("no device has 150 free")
	}
}

func TestGPUPool_DoubleAllocateSameOwner(t *testing.T) {
	pool := NewGPUPool(Device{Name: "gpu0", Capacity: 100})

	if err := pool.Allocate(10, "run"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pool.Allocate(10, "run"); err == nil {
		t.Error("second allocation for the same owner must fail")
	}
}

func TestGPUPool_ReleaseUnknownOwner(t *testing.T) {
	pool := NewGPUPool(Device{Name: "gpu0", Capacity: 100})
	pool.Release("nobody") // must be a no-op, not a panic
	if pool.Free() != 100 {
		t.Errorf("free = %d, want 100", pool.Free())
	}
}

func TestGPUPool_InvalidRequests(t *testing.T) {
	pool := NewGPUPool(Device{Name: "gpu0", Capacity: 100})

	if pool.CanAllocate(0) || pool.CanAllocate(-5) {
		t.Error("non-positive sizes must be refused")
	}
	if err := pool.Allocate(0, "run"); !errors.Is(err, ErrInsufficientMemory) {
		t.Errorf("expected ErrInsufficientMemory, got %v", err)
	}
}

func TestGPUPool_DropsInvalidDevices(t *testing.T) {
	pool := NewGPUPool(
		Device{Name: "bad", Capacity: 0},
		Device{Name: "good", Capacity: 10},
	)
	if pool.Free() != 10 {
		t.Errorf("free = %d, want 10", pool.Free())
	}
}

func TestGPUPool_Concurrent(t *testing.T) {
	pool := NewGPUPool(Device{Name: "gpu0", Capacity: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := fmt.Sprintf("run-%d", i)
			for j := 0; j < 50; j++ {
				if err := pool.Allocate(10, owner); err == nil {
					pool.Release(owner)
				}
			}
		}(i)
	}
	wg.Wait()

	if pool.Free() != 1000 {
		t.Errorf("free = %d, want all capacity returned", pool.Free())
	}
}

func TestNopAllocator(t *testing.T) {
	var a Allocator = NopAllocator{}
	if a.CanAllocate(1) {
		t.Error("nop allocator must refuse everything")
	}
	if err := a.Allocate(1, "run"); !errors.Is(err, ErrInsufficientMemory) {
		t.Errorf("expected ErrInsufficientMemory, got %v", err)
	}
	a.Release("run")
}
