// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// SaveQTable stores a user's value-table snapshot, replacing any
// previous snapshot.
func (s *Store) SaveQTable(ctx context.Context, username string, snapshot map[string]map[string]float64) error {
	if username == "" {
		return ErrEmptyUsername
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal qtable: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(qtableKeyPrefix + username)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set qtable: %w", err)
		}
		return nil
	})
}

// LoadQTable retrieves a user's value-table snapshot. A user with no
// stored snapshot gets an empty table, not an error.
func (s *Store) LoadQTable(ctx context.Context, username string) (map[string]map[string]float64, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}

	snapshot := map[string]map[string]float64{}

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(qtableKeyPrefix + username)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get qtable: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// DeleteQTable removes a user's stored snapshot. Deleting a snapshot
// that does not exist is not an error.
func (s *Store) DeleteQTable(ctx context.Context, username string) error {
	if username == "" {
		return ErrEmptyUsername
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(qtableKeyPrefix + username)
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete qtable: %w", err)
		}
		return nil
	})
}
