// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package events

import (
	"testing"

	"github.com/godshot/godshot/internal/brew"
)

func testState() brew.State {
	return brew.State{IsFirstBrew: false, DaysSinceRoast: 12}
}

func testAction() brew.Action {
	return brew.Action{GrindSize: 15, BrewVolume: 40.0, CoffeeDose: 18.0}
}

func testEvaluation() brew.Evaluation {
	return brew.Evaluation{
		Overall:    brew.IntPtr(8),
		Channeling: brew.IntPtr(2),
		BrewTime:   brew.FloatPtr(28.5),
	}
}

func TestNewSuggestedEvent(t *testing.T) {
	event := NewSuggestedEvent("alice", testState(), testAction(), "exploit")

	if event.EventID == "" {
		t.Error("Expected EventID to be set")
	}
	if event.Type != EventTypeSuggested {
		t.Errorf("Expected Type=%s, got %s", EventTypeSuggested, event.Type)
	}
	if event.Username != "alice" {
		t.Errorf("Expected Username=alice, got %s", event.Username)
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected Timestamp to be set")
	}
	if event.SchemaVersion != SchemaVersion {
		t.Errorf("Expected SchemaVersion=%d, got %d", SchemaVersion, event.SchemaVersion)
	}
	if event.Mode != "exploit" {
		t.Errorf("Expected Mode=exploit, got %s", event.Mode)
	}
	if event.Action.GrindSize != 15 {
		t.Errorf("Expected GrindSize=15, got %d", event.Action.GrindSize)
	}
	if event.Evaluation != nil {
		t.Error("Expected Evaluation to be nil on suggestion events")
	}
}

func TestNewEvaluatedEvent(t *testing.T) {
	event := NewEvaluatedEvent("bob", testState(), testAction(), testEvaluation(), 0.42)

	if event.EventID == "" {
		t.Error("Expected EventID to be set")
	}
	if event.Type != EventTypeEvaluated {
		t.Errorf("Expected Type=%s, got %s", EventTypeEvaluated, event.Type)
	}
	if event.Evaluation == nil {
		t.Fatal("Expected Evaluation to be set")
	}
	if got := *event.Evaluation.Overall; got != 8 {
		t.Errorf("Expected Overall=8, got %d", got)
	}
	if event.Reward == nil {
		t.Fatal("Expected Reward to be set")
	}
	if *event.Reward != 0.42 {
		t.Errorf("Expected Reward=0.42, got %v", *event.Reward)
	}
}

func TestBrewEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   *BrewEvent
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid suggested event",
			event:   NewSuggestedEvent("alice", testState(), testAction(), "explore"),
			wantErr: false,
		},
		{
			name:    "valid evaluated event",
			event:   NewEvaluatedEvent("alice", testState(), testAction(), testEvaluation(), 0.1),
			wantErr: false,
		},
		{
			name: "missing event_id",
			event: &BrewEvent{
				Type:     EventTypeSuggested,
				Username: "alice",
			},
			wantErr: true,
			errMsg:  "event_id: required",
		},
		{
			name: "unknown type",
			event: &BrewEvent{
				EventID:  "test-id",
				Type:     "poured",
				Username: "alice",
			},
			wantErr: true,
			errMsg:  "type: must be suggested or evaluated",
		},
		{
			name: "missing username",
			event: &BrewEvent{
				EventID: "test-id",
				Type:    EventTypeSuggested,
			},
			wantErr: true,
			errMsg:  "username: required",
		},
		{
			name: "evaluated without evaluation",
			event: &BrewEvent{
				EventID:  "test-id",
				Type:     EventTypeEvaluated,
				Username: "alice",
			},
			wantErr: true,
			errMsg:  "evaluation: required for evaluated events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				} else if err.Error() != tt.errMsg {
					t.Errorf("Expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestBrewEvent_Topic(t *testing.T) {
	tests := []struct {
		eventType string
		expected  string
	}{
		{EventTypeSuggested, TopicBrewSuggested},
		{EventTypeEvaluated, TopicBrewEvaluated},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			event := &BrewEvent{Type: tt.eventType}
			if got := event.Topic(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestBrewEvent_SchemaVersion(t *testing.T) {
	t.Run("legacy event defaults to 1", func(t *testing.T) {
		event := &BrewEvent{}
		if got := event.GetSchemaVersion(); got != 1 {
			t.Errorf("Expected schema version 1, got %d", got)
		}
	})

	t.Run("explicit version preserved", func(t *testing.T) {
		event := &BrewEvent{SchemaVersion: 2}
		if got := event.GetSchemaVersion(); got != 2 {
			t.Errorf("Expected schema version 2, got %d", got)
		}
	})

	t.Run("ensure sets unset version", func(t *testing.T) {
		event := &BrewEvent{}
		event.EnsureSchemaVersion()
		if event.SchemaVersion != SchemaVersion {
			t.Errorf("Expected SchemaVersion=%d, got %d", SchemaVersion, event.SchemaVersion)
		}
	})
}
