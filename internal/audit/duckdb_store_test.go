// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/database"
)

// newTestStore opens an in-memory DuckDB instance with the audit
// schema applied.
func newTestStore(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	store := NewDuckDBStore(db.SQL())
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	return store
}

// testEvent builds a fully populated event.
func testEvent(id string, eventType EventType, ts time.Time) *Event {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if eventType == EventTypeAuthFailure {
		outcome = OutcomeFailure
		severity = SeverityWarning
	}

	return &Event{
		ID:        id,
		Timestamp: ts,
		Type:      eventType,
		Severity:  severity,
		Outcome:   outcome,
		Actor: Actor{
			ID:         "admin",
			Type:       "user",
			Name:       "admin",
			AuthMethod: "jwt",
		},
		Target: &Target{
			ID:   "alice",
			Type: "profile",
			Name: "alice",
		},
		Source: Source{
			IPAddress: "10.0.0.1",
			UserAgent: "godshot-test",
			Hostname:  "localhost:9330",
		},
		Action:      "switch",
		Description: "Switched to brewing profile alice",
		Metadata:    json.RawMessage(`{"previous":"bob"}`),
		RequestID:   "req-" + id,
	}
}

func TestDuckDBStoreSaveAndQuery(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, testEvent("evt-1", EventTypeProfileSwitch, ts)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	events, err := store.Query(ctx, DefaultQueryFilter())
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	event := events[0]
	if event.ID != "evt-1" {
		t.Errorf("ID = %q, want %q", event.ID, "evt-1")
	}
	if event.Type != EventTypeProfileSwitch {
		t.Errorf("Type = %q, want %q", event.Type, EventTypeProfileSwitch)
	}
	if event.Severity != SeverityInfo {
		t.Errorf("Severity = %q, want %q", event.Severity, SeverityInfo)
	}
	if event.Actor.AuthMethod != "jwt" {
		t.Errorf("Actor.AuthMethod = %q, want %q", event.Actor.AuthMethod, "jwt")
	}
	if event.Target == nil {
		t.Fatal("Target = nil, want profile target")
	}
	if event.Target.ID != "alice" || event.Target.Type != "profile" {
		t.Errorf("Target = %+v, want profile alice", event.Target)
	}
	if event.Source.UserAgent != "godshot-test" {
		t.Errorf("Source.UserAgent = %q, want %q", event.Source.UserAgent, "godshot-test")
	}
	if !event.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", event.Timestamp, ts)
	}
	if event.RequestID != "req-evt-1" {
		t.Errorf("RequestID = %q, want %q", event.RequestID, "req-evt-1")
	}

	var meta map[string]string
	if err := json.Unmarshal(event.Metadata, &meta); err != nil {
		t.Fatalf("metadata did not round-trip: %v", err)
	}
	if meta["previous"] != "bob" {
		t.Errorf(`metadata["previous"] = %q, want %q`, meta["previous"], "bob")
	}
}

func TestDuckDBStoreSaveNilEvent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) succeeded, want error")
	}
}

func TestDuckDBStoreMinimalEvent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// No target, no metadata, no request ID
	err := store.Save(ctx, &Event{
		ID:        "evt-min",
		Timestamp: time.Now().UTC(),
		Type:      EventTypeSessionResume,
		Severity:  SeverityInfo,
		Outcome:   OutcomeSuccess,
		Actor:     SystemActor(),
		Source:    Source{IPAddress: "localhost"},
		Action:    "resume",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	events, err := store.Query(ctx, DefaultQueryFilter())
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Target != nil {
		t.Errorf("Target = %+v, want nil", events[0].Target)
	}
	if len(events[0].Metadata) != 0 {
		t.Errorf("Metadata = %q, want empty", events[0].Metadata)
	}
	if events[0].Actor.ID != "system" {
		t.Errorf("Actor.ID = %q, want %q", events[0].Actor.ID, "system")
	}
}

func TestDuckDBStoreFilters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	seed := []struct {
		id        string
		eventType EventType
	}{
		{"evt-1", EventTypeAuthSuccess},
		{"evt-2", EventTypeAuthFailure},
		{"evt-3", EventTypeAuthFailure},
		{"evt-4", EventTypeProfileSwitch},
		{"evt-5", EventTypeLogout},
	}
	for i, s := range seed {
		event := testEvent(s.id, s.eventType, base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, event); err != nil {
			t.Fatalf("Save(%s) error = %v", s.id, err)
		}
	}

	t.Run("query newest first", func(t *testing.T) {
		events, err := store.Query(ctx, DefaultQueryFilter())
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 5 {
			t.Fatalf("got %d events, want 5", len(events))
		}
		if events[0].ID != "evt-5" {
			t.Errorf("first event = %q, want %q", events[0].ID, "evt-5")
		}
		if events[4].ID != "evt-1" {
			t.Errorf("last event = %q, want %q", events[4].ID, "evt-1")
		}
	})

	t.Run("type filter", func(t *testing.T) {
		filter := DefaultQueryFilter()
		filter.Types = []EventType{EventTypeAuthFailure}
		events, err := store.Query(ctx, filter)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
		for _, event := range events {
			if event.Type != EventTypeAuthFailure {
				t.Errorf("event %s Type = %q, want auth.failure", event.ID, event.Type)
			}
		}
	})

	t.Run("outcome and severity filter", func(t *testing.T) {
		filter := DefaultQueryFilter()
		filter.Outcomes = []Outcome{OutcomeFailure}
		filter.Severities = []Severity{SeverityWarning}
		count, err := store.Count(ctx, filter)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count != 2 {
			t.Errorf("Count() = %d, want 2", count)
		}
	})

	t.Run("count ignores limit", func(t *testing.T) {
		filter := DefaultQueryFilter()
		filter.Limit = 1
		count, err := store.Count(ctx, filter)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count != 5 {
			t.Errorf("Count() = %d, want 5", count)
		}
	})

	t.Run("time range", func(t *testing.T) {
		start := base.Add(90 * time.Second)
		end := base.Add(3 * time.Minute)
		filter := DefaultQueryFilter()
		filter.StartTime = &start
		filter.EndTime = &end
		events, err := store.Query(ctx, filter)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2 (evt-3, evt-4)", len(events))
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		filter := DefaultQueryFilter()
		filter.Limit = 2
		filter.Offset = 1
		events, err := store.Query(ctx, filter)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
		if events[0].ID != "evt-4" || events[1].ID != "evt-3" {
			t.Errorf("page = [%s, %s], want [evt-4, evt-3]", events[0].ID, events[1].ID)
		}
	})

	t.Run("order by allowlist falls back to timestamp", func(t *testing.T) {
		filter := DefaultQueryFilter()
		filter.OrderBy = "metadata; DROP TABLE audit_events"
		events, err := store.Query(ctx, filter)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 5 {
			t.Fatalf("got %d events, want 5", len(events))
		}
		if events[0].ID != "evt-5" {
			t.Errorf("first event = %q, want %q", events[0].ID, "evt-5")
		}
	})

	t.Run("retention delete", func(t *testing.T) {
		deleted, err := store.Delete(ctx, base.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted != 2 {
			t.Errorf("Delete() = %d, want 2", deleted)
		}
		count, err := store.Count(ctx, QueryFilter{})
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count != 3 {
			t.Errorf("Count() after delete = %d, want 3", count)
		}
	})
}

func TestDuckDBStoreWithLogger(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	logger := NewLogger(store, DefaultConfig())

	logger.LogAuthFailure("admin", Source{IPAddress: "203.0.113.7"}, "invalid credentials")
	logger.LogAuthSuccess("admin", Source{IPAddress: "203.0.113.7"})

	// Close drains the async buffer into DuckDB
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	count, err := store.Count(ctx, QueryFilter{SourceIP: "203.0.113.7"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	filter := DefaultQueryFilter()
	filter.Outcomes = []Outcome{OutcomeFailure}
	events, err := logger.Query(ctx, filter)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d failure events, want 1", len(events))
	}
	if events[0].Type != EventTypeAuthFailure {
		t.Errorf("Type = %q, want %q", events[0].Type, EventTypeAuthFailure)
	}
}
