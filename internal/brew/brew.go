// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package brew defines the core domain types for espresso brewing:
// machine parameters (Action), brewing context (State), human feedback
// (Evaluation), and the persisted brew attempt (Record).
//
// These types are pure data. The learning semantics that consume them
// live in internal/learn; storage lives in internal/database and
// internal/storage.
package brew

import (
	"time"

	"github.com/google/uuid"

	"github.com/godshot/godshot/internal/validation"
)

// Machine parameter bounds. Every suggested action stays inside these
// ranges; the discretizer in internal/learn maps them to bucket indices.
const (
	// GrindMin and GrindMax bound the grinder setting (coarse/fine scale).
	GrindMin = 1
	GrindMax = 30

	// VolumeMin and VolumeMax bound the brew volume in milliliters.
	VolumeMin = 25.0
	VolumeMax = 50.0

	// DoseMin and DoseMax bound the coffee dose in grams.
	DoseMin = 15.0
	DoseMax = 25.0
)

// Rating bounds for all evaluation fields.
const (
	RatingMin = 1
	RatingMax = 10
)

// RoastAgeHorizon is the number of days after which beans are treated as
// maximally stale. Staleness beyond this horizon is not differentiated.
const RoastAgeHorizon = 30

// Action is one set of machine parameters for a single espresso shot.
//
// An action is a pure value; its discretized form is derived by the
// environment, never stored on the action itself.
type Action struct {
	GrindSize  int     `json:"grind_size" validate:"min=1,max=30"`
	BrewVolume float64 `json:"brew_volume" validate:"min=25,max=50"`
	CoffeeDose float64 `json:"coffee_dose" validate:"min=15,max=25"`
}

// State is the brewing context at the moment a suggestion is requested.
// Immutable once constructed; it has no identity beyond its value and is
// used only as a lookup key.
type State struct {
	IsFirstBrew    bool `json:"is_first_brew"`
	DaysSinceRoast int  `json:"days_since_roast" validate:"min=0"`
}

// NewState derives a State from the first-brew flag and a roast date,
// evaluated at the given time. A roast date in the future counts as zero
// days old.
func NewState(isFirstBrew bool, roastDate, now time.Time) State {
	return State{
		IsFirstBrew:    isFirstBrew,
		DaysSinceRoast: DaysSince(roastDate, now),
	}
}

// DaysSince returns the number of whole calendar days between the roast
// date and now, floored at zero.
func DaysSince(roastDate, now time.Time) int {
	a := time.Date(roastDate.Year(), roastDate.Month(), roastDate.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Evaluation is human-supplied feedback on one brew attempt.
//
// All rating fields are nullable; a nil pointer means the user skipped
// that rating. Present ratings must be within [1,10] and a present brew
// time must be positive. Construct through NewEvaluation so that these
// bounds are enforced before an evaluation can enter the system.
type Evaluation struct {
	Bitterness    *int     `json:"bitterness,omitempty" validate:"omitempty,min=1,max=10"`
	Acidity       *int     `json:"acidity,omitempty" validate:"omitempty,min=1,max=10"`
	TasteStrength *int     `json:"taste_strength,omitempty" validate:"omitempty,min=1,max=10"`
	Overall       *int     `json:"overall_experience,omitempty" validate:"omitempty,min=1,max=10"`
	Channeling    *int     `json:"channeling,omitempty" validate:"omitempty,min=1,max=10"`
	BrewTime      *float64 `json:"brew_time,omitempty" validate:"omitempty,gt=0"`
}

// NewEvaluation validates the given evaluation and returns a copy of it.
// Any present rating outside [1,10] or a non-positive brew time is
// rejected with a validation error; out-of-range values are never
// silently clamped.
func NewEvaluation(e Evaluation) (*Evaluation, error) {
	if verr := validation.ValidateStruct(&e); verr != nil {
		return nil, verr
	}
	return &e, nil
}

// Record is one brew attempt: the suggested action, the context it was
// suggested in, and the evaluation once the user supplies one. A record
// with a nil Evaluation is an unevaluated (pending) brew.
type Record struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Action     Action      `json:"action"`
	State      State       `json:"state"`
	Timestamp  time.Time   `json:"timestamp"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// NewRecord creates an unevaluated record for a freshly suggested action.
func NewRecord(username string, action Action, state State) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Username:  username,
		Action:    action,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
}

// Evaluated reports whether the record has received feedback.
func (r *Record) Evaluated() bool {
	return r.Evaluation != nil
}

// IntPtr returns a pointer to the given int. Convenience for building
// evaluations from prompt or request input.
func IntPtr(i int) *int {
	return &i
}

// FloatPtr returns a pointer to the given float64.
func FloatPtr(f float64) *float64 {
	return &f
}
