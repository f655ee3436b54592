// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/godshot/godshot/internal/brew"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to BrewEvent.
const SchemaVersion = 1

// Topic constants for the brew event stream.
const (
	// TopicBrewSuggested carries events emitted when the agent proposes parameters.
	TopicBrewSuggested = "brew.suggested"
	// TopicBrewEvaluated carries events emitted when a brew has been rated.
	TopicBrewEvaluated = "brew.evaluated"
)

// Event type constants. The type doubles as the topic suffix.
const (
	// EventTypeSuggested indicates the agent proposed brewing parameters.
	EventTypeSuggested = "suggested"
	// EventTypeEvaluated indicates a completed brew was rated and learned from.
	EventTypeEvaluated = "evaluated"
)

// BrewEvent is the canonical event format for the suggestion/evaluation
// lifecycle. One event is published per agent decision and one per
// evaluation, keyed to the user whose table produced it.
//
// Schema versioning:
// - SchemaVersion tracks the event format version
// - Consumers should handle older schema versions for backward compatibility
// - Version 1: Initial schema with all current fields
type BrewEvent struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"` // Event schema version (default: 1)

	// Identification
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"` // suggested, evaluated
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`

	// Brew context
	State  brew.State  `json:"state"`
	Action brew.Action `json:"action"`
	Mode   string      `json:"mode,omitempty"` // explore, exploit, baseline

	// Evaluation outcome, present only on evaluated events
	Evaluation *brew.Evaluation `json:"evaluation,omitempty"`
	Reward     *float64         `json:"reward,omitempty"`
}

// NewSuggestedEvent creates a suggestion event with a unique ID,
// timestamp, and schema version.
func NewSuggestedEvent(username string, state brew.State, action brew.Action, mode string) *BrewEvent {
	return &BrewEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          EventTypeSuggested,
		Username:      username,
		Timestamp:     time.Now().UTC(),
		State:         state,
		Action:        action,
		Mode:          mode,
	}
}

// NewEvaluatedEvent creates an evaluation event with a unique ID,
// timestamp, and schema version.
func NewEvaluatedEvent(username string, state brew.State, action brew.Action, eval brew.Evaluation, reward float64) *BrewEvent {
	return &BrewEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          EventTypeEvaluated,
		Username:      username,
		Timestamp:     time.Now().UTC(),
		State:         state,
		Action:        action,
		Evaluation:    &eval,
		Reward:        &reward,
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for legacy events.
func (e *BrewEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1 // Default for events without explicit version (backward compatibility)
	}
	return e.SchemaVersion
}

// EnsureSchemaVersion sets the schema version if not already set.
// Call this when processing events that may not have a version set.
func (e *BrewEvent) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *BrewEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Type != EventTypeSuggested && e.Type != EventTypeEvaluated {
		return &ValidationError{Field: "type", Message: "must be suggested or evaluated"}
	}
	if e.Username == "" {
		return &ValidationError{Field: "username", Message: "required"}
	}
	if e.Type == EventTypeEvaluated && e.Evaluation == nil {
		return &ValidationError{Field: "evaluation", Message: "required for evaluated events"}
	}
	return nil
}

// Topic returns the publish subject for this event.
// Format: brew.<type>
// Example: brew.suggested
func (e *BrewEvent) Topic() string {
	return "brew." + e.Type
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
