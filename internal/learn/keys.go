// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package learn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/godshot/godshot/internal/brew"
)

// StateKey identifies one row of the value table. The agent works with
// typed keys; the underscore-separated string form exists only at the
// persistence boundary.
type StateKey struct {
	// FirstBrew is the first-brew-after-startup flag.
	FirstBrew bool

	// RoastAge is days since roast, clamped into [0, brew.RoastAgeHorizon].
	RoastAge int
}

// String returns the persisted form, e.g. "true_12".
func (k StateKey) String() string {
	return strconv.FormatBool(k.FirstBrew) + "_" + strconv.Itoa(k.RoastAge)
}

// ParseStateKey parses the persisted form of a state key. The roast age
// is clamped into the learning horizon, mirroring how live contexts are
// keyed. Returns an error for wrong field counts or non-boolean /
// non-numeric parts.
func ParseStateKey(s string) (StateKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return StateKey{}, fmt.Errorf("state key %q: expected 2 fields, got %d", s, len(parts))
	}

	firstBrew, err := strconv.ParseBool(parts[0])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}

	age, err := strconv.Atoi(parts[1])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}

	return StateKey{FirstBrew: firstBrew, RoastAge: clampInt(age, 0, brew.RoastAgeHorizon)}, nil
}

// ActionKey identifies one cell of a table row: the bucket indices of a
// discretized action.
type ActionKey struct {
	Grind  int
	Volume int
	Dose   int
}

// String returns the persisted form, e.g. "14_5_2".
func (k ActionKey) String() string {
	return strconv.Itoa(k.Grind) + "_" + strconv.Itoa(k.Volume) + "_" + strconv.Itoa(k.Dose)
}

// ParseActionKey parses the persisted form of an action key. Indices
// outside the bucket ranges are rejected so that a restored table can
// never produce an out-of-bounds action.
func ParseActionKey(s string) (ActionKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return ActionKey{}, fmt.Errorf("action key %q: expected 3 fields, got %d", s, len(parts))
	}

	indices := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return ActionKey{}, fmt.Errorf("action key %q: %w", s, err)
		}
		indices[i] = v
	}

	k := ActionKey{Grind: indices[0], Volume: indices[1], Dose: indices[2]}
	if k.Grind < 0 || k.Grind >= GrindSteps ||
		k.Volume < 0 || k.Volume >= VolumeSteps ||
		k.Dose < 0 || k.Dose >= DoseSteps {
		return ActionKey{}, fmt.Errorf("action key %q: index out of range", s)
	}

	return k, nil
}

// Less orders action keys by (grind, volume, dose). Used to break value
// ties deterministically.
func (k ActionKey) Less(other ActionKey) bool {
	if k.Grind != other.Grind {
		return k.Grind < other.Grind
	}
	if k.Volume != other.Volume {
		return k.Volume < other.Volume
	}
	return k.Dose < other.Dose
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
