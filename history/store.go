// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package history persists compression-run records in an embedded BadgerDB.
//
// # Description
//
// Each run is stored as a JSON record keyed by run/<nanos>/<run id>, so a
// prefix scan returns runs in chronological order. The store is optional:
// the engine works without one, and the CLI only opens it when asked to.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("history: store closed")

var (
	recordsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamma_history_records_stored_total",
		Help: "Total compression-run records persisted",
	})
	recordStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamma_history_store_errors_total",
		Help: "Total failures persisting run records",
	})
)

// Record is the persisted form of one compression run.
type Record struct {
	RunID          string        `json:"run_id"`
	SourceLanguage string        `json:"source_language"`
	OriginalSize   int           `json:"original_size"`
	CompressedSize int           `json:"compressed_size"`
	Ratio          float64       `json:"ratio"`
	PatternsFound  int           `json:"patterns_found"`
	Verified       bool          `json:"verified"`
	Duration       time.Duration `json:"duration"`
	StoredAt       time.Time     `json:"stored_at"`
}

// Store is a badger-backed run-history store.
//
// # Thread Safety
//
// Safe for concurrent use; badger transactions provide isolation.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// keyPrefix namespaces run records within the database.
const keyPrefix = "run/"

// Open opens (or creates) a store at the given directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history: directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "history_store"),
	}, nil
}

// OpenInMemory opens a store with no disk persistence. Useful for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: open in-memory database: %w", err)
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "history_store"),
	}, nil
}

// Put persists one run record.
func (s *Store) Put(r Record) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	if r.StoredAt.IsZero() {
		r.StoredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(r)
	if err != nil {
		recordStoreErrors.Inc()
		return fmt.Errorf("history: marshal record: %w", err)
	}
	key := fmt.Sprintf("%s%020d/%s", keyPrefix, r.StoredAt.UnixNano(), r.RunID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		recordStoreErrors.Inc()
		return fmt.Errorf("history: store record %s: %w", r.RunID, err)
	}
	recordsStored.Inc()
	s.logger.Debug("stored run record", "run_id", r.RunID, "ratio", r.Ratio)
	return nil
}

// List returns up to limit records, oldest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Record, error) {
	if s.db.IsClosed() {
		return nil, ErrClosed
	}
	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var r Record
				if err := json.Unmarshal(val, &r); err != nil {
					return fmt.Errorf("history: decode record: %w", err)
				}
				out = append(out, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AverageRatio returns the mean compression ratio across all records, or 0
// for an empty store.
func (s *Store) AverageRatio() (float64, error) {
	records, err := s.List(0)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Ratio
	}
	return sum / float64(len(records)), nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
