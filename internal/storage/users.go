// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// User is the registration record stored per known user.
type User struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings holds per-user preferences that survive restarts.
type Settings struct {
	// RoastDate is the roast date of the beans currently in use.
	// Zero when the user has not set one.
	RoastDate time.Time `json:"roast_date"`
}

// RegisterUser records a username as known. Registering an existing
// user keeps the original registration time.
func (s *Store) RegisterUser(ctx context.Context, username string) error {
	if username == "" {
		return ErrEmptyUsername
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + username)

		_, err := txn.Get(key)
		if err == nil {
			return nil // already registered
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get user: %w", err)
		}

		data, err := json.Marshal(User{
			Username:  username,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		return nil
	})
}

// ListUsers returns all registered usernames in lexical order.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	var users []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			users = append(users, strings.TrimPrefix(key, userKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sort.Strings(users)
	return users, nil
}

// SetLastUser records the most recently active username, so the next
// session can resume it.
func (s *Store) SetLastUser(ctx context.Context, username string) error {
	if username == "" {
		return ErrEmptyUsername
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(lastUserKey), []byte(username)); err != nil {
			return fmt.Errorf("set last user: %w", err)
		}
		return nil
	})
}

// LastUser returns the most recently active username. ok is false
// when no user has been active yet.
func (s *Store) LastUser(ctx context.Context) (username string, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastUserKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get last user: %w", err)
		}

		return item.Value(func(val []byte) error {
			username = string(val)
			ok = true
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return username, ok, nil
}

// SaveSettings stores a user's settings, replacing any previous
// settings.
func (s *Store) SaveSettings(ctx context.Context, username string, settings Settings) error {
	if username == "" {
		return ErrEmptyUsername
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(settingsKeyPrefix + username)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set settings: %w", err)
		}
		return nil
	})
}

// LoadSettings retrieves a user's settings. A user with no stored
// settings gets the zero Settings, not an error.
func (s *Store) LoadSettings(ctx context.Context, username string) (Settings, error) {
	if username == "" {
		return Settings{}, ErrEmptyUsername
	}

	var settings Settings

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(settingsKeyPrefix + username)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// SetRoastDate updates the roast date in a user's settings, keeping
// the other settings intact.
func (s *Store) SetRoastDate(ctx context.Context, username string, date time.Time) error {
	settings, err := s.LoadSettings(ctx, username)
	if err != nil {
		return err
	}

	settings.RoastDate = date
	return s.SaveSettings(ctx, username, settings)
}

// RoastDate returns the user's roast date. ok is false when the user
// has not set one.
func (s *Store) RoastDate(ctx context.Context, username string) (date time.Time, ok bool, err error) {
	settings, err := s.LoadSettings(ctx, username)
	if err != nil {
		return time.Time{}, false, err
	}
	if settings.RoastDate.IsZero() {
		return time.Time{}, false, nil
	}
	return settings.RoastDate, true, nil
}
