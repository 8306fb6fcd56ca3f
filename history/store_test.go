// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, ratio float64, at time.Time) Record {
	return Record{
		RunID:          id,
		SourceLanguage: "python",
		OriginalSize:   1000,
		CompressedSize: int(1000 / ratio),
		Ratio:          ratio,
		PatternsFound:  2,
		Verified:       true,
		Duration:       15 * time.Millisecond,
		StoredAt:       at,
	}
}

func TestStore_PutList(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(record("run-1", 1.5, base)))
	require.NoError(t, s.Put(record("run-2", 2.0, base.Add(time.Second))))
	require.NoError(t, s.Put(record("run-3", 1.2, base.Add(2*time.Second))))

	records, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Keys embed the timestamp, so iteration is chronological.
	assert.Equal(t, "run-1", records[0].RunID)
	assert.Equal(t, "run-3", records[2].RunID)
	assert.Equal(t, "python", records[0].SourceLanguage)
	assert.True(t, records[0].Verified)
}

func TestStore_ListLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(record("run", 1.5, base.Add(time.Duration(i)*time.Second))))
	}

	records, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_AverageRatio(t *testing.T) {
	s := newTestStore(t)

	avg, err := s.AverageRatio()
	require.NoError(t, err)
	assert.Zero(t, avg)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(record("run-1", 1.0, base)))
	require.NoError(t, s.Put(record("run-2", 3.0, base.Add(time.Second))))

	avg, err = s.AverageRatio()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 0.001)
}

func TestStore_StoredAtDefaulted(t *testing.T) {
	s := newTestStore(t)

	r := record("run-1", 1.5, time.Time{})
	require.NoError(t, s.Put(r))

	records, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].StoredAt.IsZero())
}

func TestStore_Closed(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(record("run", 1.0, time.Now())), ErrClosed)
	_, err = s.List(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
