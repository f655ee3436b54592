// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package services

import (
	"context"
)

// GarbageCollector interface matches *storage.Store's RunGC method.
//
// This interface allows the StoreGCService to work with the store
// without importing the storage package.
type GarbageCollector interface {
	RunGC(ctx context.Context) error
}

// StoreGCService wraps the Badger value-log GC loop as a supervised
// service.
//
// Q-table snapshots overwrite the same keys on every evaluation, so the
// value log accumulates dead versions. The store's RunGC loop reclaims
// them on a ticker and blocks until the context is canceled, which is
// already the shape suture expects.
//
// Example usage:
//
//	store, _ := storage.Open(cfg.Storage)
//	svc := services.NewStoreGCService(store)
//	tree.AddDataService(svc)
type StoreGCService struct {
	store GarbageCollector
	name  string
}

// NewStoreGCService creates a new storage GC service wrapper.
func NewStoreGCService(store GarbageCollector) *StoreGCService {
	return &StoreGCService{
		store: store,
		name:  "storage-gc",
	}
}

// Serve implements suture.Service.
// RunGC returns ctx.Err() on shutdown, which passes through unchanged.
func (s *StoreGCService) Serve(ctx context.Context) error {
	return s.store.RunGC(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *StoreGCService) String() string {
	return s.name
}
