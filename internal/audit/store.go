// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage. Suitable for
// tests and development; data is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates a new in-memory audit store holding at most
// maxLen events. Oldest events are evicted when the cap is reached.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, maxLen),
		maxLen: maxLen,
	}
}

// Save persists an audit event.
func (s *MemoryStore) Save(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict the oldest tenth when full
	if len(s.events) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount < 1 {
			removeCount = 1
		}
		s.events = s.events[removeCount:]
	}

	s.events = append(s.events, *event)
	return nil
}

// Query retrieves events matching the filter. Events are returned
// newest first unless the filter orders ascending; OrderBy is ignored
// because the in-memory store only keeps insertion order.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Event
	skip := filter.Offset

	appendMatch := func(event Event) bool {
		if skip > 0 {
			skip--
			return true
		}
		results = append(results, event)
		return filter.Limit <= 0 || len(results) < filter.Limit
	}

	if filter.OrderDesc || filter.OrderBy == "" {
		for i := len(s.events) - 1; i >= 0; i-- {
			if !matchesFilter(&s.events[i], &filter) {
				continue
			}
			if !appendMatch(s.events[i]) {
				break
			}
		}
	} else {
		for i := range s.events {
			if !matchesFilter(&s.events[i], &filter) {
				continue
			}
			if !appendMatch(s.events[i]) {
				break
			}
		}
	}

	return results, nil
}

// Count returns the number of events matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.events {
		if matchesFilter(&s.events[i], &filter) {
			count++
		}
	}

	return count, nil
}

// Delete removes events older than the given time.
func (s *MemoryStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64

	for idx := range s.events {
		if s.events[idx].Timestamp.Before(olderThan) {
			deleted++
		} else {
			kept = append(kept, s.events[idx])
		}
	}

	s.events = kept
	return deleted, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// matchesFilter returns true if the event matches all filter criteria.
func matchesFilter(event *Event, filter *QueryFilter) bool {
	if len(filter.Types) > 0 && !containsValue(filter.Types, event.Type) {
		return false
	}
	if len(filter.Severities) > 0 && !containsValue(filter.Severities, event.Severity) {
		return false
	}
	if len(filter.Outcomes) > 0 && !containsValue(filter.Outcomes, event.Outcome) {
		return false
	}

	if filter.ActorID != "" && event.Actor.ID != filter.ActorID {
		return false
	}
	if filter.SourceIP != "" && event.Source.IPAddress != filter.SourceIP {
		return false
	}

	if filter.StartTime != nil && event.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && event.Timestamp.After(*filter.EndTime) {
		return false
	}

	return true
}

// containsValue reports whether the slice contains the value.
func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
