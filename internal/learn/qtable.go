// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package learn

import (
	"sort"
)

// QTable stores learned values keyed by (state, action). Values start
// at zero for any cell never written.
//
// QTable is not safe for concurrent use on its own; the Agent guards
// its table with the agent lock.
type QTable struct {
	values map[StateKey]map[ActionKey]float64
}

// Entry is one (action, value) cell of a table row.
type Entry struct {
	Key   ActionKey
	Value float64
}

// NewQTable creates an empty table.
func NewQTable() *QTable {
	return &QTable{values: make(map[StateKey]map[ActionKey]float64)}
}

// Get returns the stored value for the cell, or 0 if none exists.
func (t *QTable) Get(state StateKey, action ActionKey) float64 {
	return t.values[state][action]
}

// Set writes the value for the cell, creating the row as needed.
func (t *QTable) Set(state StateKey, action ActionKey, value float64) {
	row, ok := t.values[state]
	if !ok {
		row = make(map[ActionKey]float64)
		t.values[state] = row
	}
	row[action] = value
}

// Best returns the highest-valued action key in the state's row. Ties
// are broken by the lowest key in (grind, volume, dose) order so the
// result is deterministic regardless of map iteration order. The third
// return is false when the row is empty or absent.
func (t *QTable) Best(state StateKey) (ActionKey, float64, bool) {
	row := t.values[state]
	if len(row) == 0 {
		return ActionKey{}, 0, false
	}

	var best ActionKey
	bestValue := 0.0
	first := true

	for key, value := range row {
		switch {
		case first, value > bestValue:
			best, bestValue, first = key, value, false
		case value == bestValue && key.Less(best):
			best = key
		}
	}

	return best, bestValue, true
}

// TopK returns up to k entries of the state's row sorted by value
// descending, equal values ordered by ascending key.
func (t *QTable) TopK(state StateKey, k int) []Entry {
	row := t.values[state]
	if len(row) == 0 || k <= 0 {
		return nil
	}

	entries := make([]Entry, 0, len(row))
	for key, value := range row {
		entries = append(entries, Entry{Key: key, Value: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Key.Less(entries[j].Key)
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// States returns the number of rows in the table.
func (t *QTable) States() int {
	return len(t.values)
}

// Entries returns the total number of stored cells.
func (t *QTable) Entries() int {
	n := 0
	for _, row := range t.values {
		n += len(row)
	}
	return n
}

// Snapshot converts the table to its string-keyed persistence form.
func (t *QTable) Snapshot() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(t.values))
	for state, row := range t.values {
		encoded := make(map[string]float64, len(row))
		for action, value := range row {
			encoded[action.String()] = value
		}
		out[state.String()] = encoded
	}
	return out
}

// Restore replaces the table contents from the string-keyed persistence
// form. Malformed keys are dropped rather than failing the whole
// restore; the return value is the number of entries discarded this
// way. Rows whose clamped state keys collide are merged.
func (t *QTable) Restore(data map[string]map[string]float64) int {
	t.values = make(map[StateKey]map[ActionKey]float64, len(data))
	dropped := 0

	for stateStr, row := range data {
		state, err := ParseStateKey(stateStr)
		if err != nil {
			dropped += len(row)
			continue
		}

		for actionStr, value := range row {
			action, err := ParseActionKey(actionStr)
			if err != nil {
				dropped++
				continue
			}
			t.Set(state, action, value)
		}
	}

	return dropped
}
