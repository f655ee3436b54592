// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package audit

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/godshot/godshot/internal/logging"
)

//nolint:gochecknoinits // test logging setup
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// waitForEvents polls the store until it holds want events or the
// timeout expires. The logger writes asynchronously.
func waitForEvents(t *testing.T, store *MemoryStore, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Len() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store has %d events, want %d", store.Len(), want)
}

func TestLoggerWritesAsync(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	logger := NewLogger(store, DefaultConfig())
	defer logger.Close()

	logger.LogAuthSuccess("admin", Source{IPAddress: "10.0.0.1"})
	waitForEvents(t, store, 1)

	events, err := store.Query(context.Background(), DefaultQueryFilter())
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	event := events[0]
	if event.Type != EventTypeAuthSuccess {
		t.Errorf("Type = %q, want %q", event.Type, EventTypeAuthSuccess)
	}
	if event.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", event.Outcome, OutcomeSuccess)
	}
	if event.Actor.Name != "admin" {
		t.Errorf("Actor.Name = %q, want %q", event.Actor.Name, "admin")
	}
	if event.Source.IPAddress != "10.0.0.1" {
		t.Errorf("Source.IPAddress = %q, want %q", event.Source.IPAddress, "10.0.0.1")
	}
	if event.ID == "" {
		t.Error("event ID not generated")
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestLoggerSeverityThreshold(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	cfg := DefaultConfig()
	cfg.MinSeverity = SeverityWarning
	logger := NewLogger(store, cfg)
	defer logger.Close()

	// Info events fall below the threshold
	logger.LogAuthSuccess("admin", Source{IPAddress: "10.0.0.1"})
	logger.LogAuthFailure("admin", Source{IPAddress: "10.0.0.1"}, "invalid credentials")
	waitForEvents(t, store, 1)

	// Give the filtered event a chance to surface if the filter leaked
	time.Sleep(20 * time.Millisecond)
	if got := store.Len(); got != 1 {
		t.Fatalf("store has %d events, want 1", got)
	}

	events, _ := store.Query(context.Background(), DefaultQueryFilter())
	if events[0].Type != EventTypeAuthFailure {
		t.Errorf("kept event Type = %q, want %q", events[0].Type, EventTypeAuthFailure)
	}
}

func TestLoggerDisabled(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	cfg := DefaultConfig()
	cfg.Enabled = false
	logger := NewLogger(store, cfg)
	defer logger.Close()

	logger.LogAuthSuccess("admin", Source{IPAddress: "10.0.0.1"})
	time.Sleep(20 * time.Millisecond)

	if got := store.Len(); got != 0 {
		t.Errorf("disabled logger wrote %d events, want 0", got)
	}
}

func TestLoggerNilReceiver(t *testing.T) {
	t.Parallel()

	var logger *Logger
	// All emit helpers must be safe without an audit trail configured
	logger.LogAuthSuccess("admin", Source{})
	logger.LogAuthFailure("admin", Source{}, "invalid credentials")
	logger.LogLogout("admin", Source{})
	logger.LogProfileSwitch("admin", "alice", Source{})
	logger.LogRoastDateSet("admin", "alice", time.Now(), Source{})
	logger.LogSessionResume("alice")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger error = %v", err)
	}
}

func TestLoggerCloseDrainsBuffer(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	logger := NewLogger(store, DefaultConfig())

	for i := 0; i < 10; i++ {
		logger.LogProfileSwitch("admin", "alice", Source{IPAddress: "10.0.0.1"})
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := store.Len(); got != 10 {
		t.Errorf("store has %d events after Close, want 10", got)
	}
}

func TestLoggerEventHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		log      func(l *Logger)
		wantType EventType
		wantOut  Outcome
		target   string
	}{
		{
			name:     "auth failure",
			log:      func(l *Logger) { l.LogAuthFailure("admin", Source{}, "invalid credentials") },
			wantType: EventTypeAuthFailure,
			wantOut:  OutcomeFailure,
		},
		{
			name:     "logout",
			log:      func(l *Logger) { l.LogLogout("admin", Source{}) },
			wantType: EventTypeLogout,
			wantOut:  OutcomeSuccess,
		},
		{
			name:     "profile switch",
			log:      func(l *Logger) { l.LogProfileSwitch("admin", "alice", Source{}) },
			wantType: EventTypeProfileSwitch,
			wantOut:  OutcomeSuccess,
			target:   "alice",
		},
		{
			name:     "roast date",
			log:      func(l *Logger) { l.LogRoastDateSet("admin", "alice", time.Now(), Source{}) },
			wantType: EventTypeRoastDateSet,
			wantOut:  OutcomeSuccess,
			target:   "alice",
		},
		{
			name:     "session resume",
			log:      func(l *Logger) { l.LogSessionResume("alice") },
			wantType: EventTypeSessionResume,
			wantOut:  OutcomeSuccess,
			target:   "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore(10)
			logger := NewLogger(store, DefaultConfig())
			defer logger.Close()

			tt.log(logger)
			waitForEvents(t, store, 1)

			events, _ := store.Query(context.Background(), DefaultQueryFilter())
			event := events[0]
			if event.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", event.Type, tt.wantType)
			}
			if event.Outcome != tt.wantOut {
				t.Errorf("Outcome = %q, want %q", event.Outcome, tt.wantOut)
			}
			if tt.target != "" {
				if event.Target == nil {
					t.Fatal("Target = nil, want profile target")
				}
				if event.Target.ID != tt.target {
					t.Errorf("Target.ID = %q, want %q", event.Target.ID, tt.target)
				}
			}
		})
	}
}

func TestSourceFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		wantIP  string
	}{
		{
			name:   "remote addr",
			remote: "192.168.1.5:41234",
			wantIP: "192.168.1.5:41234",
		},
		{
			name:    "x-forwarded-for wins",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"},
			wantIP:  "203.0.113.7",
		},
		{
			name:    "x-real-ip fallback",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Real-IP": "198.51.100.2"},
			wantIP:  "198.51.100.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "http://godshot.local/api/v1/suggest", nil)
			r.RemoteAddr = tt.remote
			r.Header.Set("User-Agent", "godshot-test")
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			source := SourceFromRequest(r)
			if source.IPAddress != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", source.IPAddress, tt.wantIP)
			}
			if source.UserAgent != "godshot-test" {
				t.Errorf("UserAgent = %q, want %q", source.UserAgent, "godshot-test")
			}
			if source.Hostname != "godshot.local" {
				t.Errorf("Hostname = %q, want %q", source.Hostname, "godshot.local")
			}
		})
	}
}

func TestMemoryStoreFilterAndPagination(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	types := []EventType{
		EventTypeAuthSuccess,
		EventTypeAuthFailure,
		EventTypeAuthFailure,
		EventTypeProfileSwitch,
		EventTypeLogout,
	}
	for i, eventType := range types {
		outcome := OutcomeSuccess
		if eventType == EventTypeAuthFailure {
			outcome = OutcomeFailure
		}
		err := store.Save(ctx, &Event{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Type:      eventType,
			Severity:  SeverityInfo,
			Outcome:   outcome,
			Actor:     Actor{ID: "admin", Type: "user"},
			Source:    Source{IPAddress: "10.0.0.1"},
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

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
	})

	t.Run("outcome filter count", func(t *testing.T) {
		filter := QueryFilter{Outcomes: []Outcome{OutcomeFailure}}
		count, err := store.Count(ctx, filter)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count != 2 {
			t.Errorf("Count() = %d, want 2", count)
		}
	})

	t.Run("time range", func(t *testing.T) {
		start := base.Add(90 * time.Second)
		filter := DefaultQueryFilter()
		filter.StartTime = &start
		events, err := store.Query(ctx, filter)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
	})

	t.Run("newest first with limit and offset", func(t *testing.T) {
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
		// Newest is skipped by the offset
		if events[0].Type != EventTypeProfileSwitch {
			t.Errorf("first event Type = %q, want %q", events[0].Type, EventTypeProfileSwitch)
		}
		if events[1].Type != EventTypeAuthFailure {
			t.Errorf("second event Type = %q, want %q", events[1].Type, EventTypeAuthFailure)
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
		if got := store.Len(); got != 3 {
			t.Errorf("store has %d events after delete, want 3", got)
		}
	})
}

func TestMemoryStoreEviction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		err := store.Save(ctx, &Event{
			ID:        string(rune('a' + i)),
			Timestamp: time.Now(),
			Type:      EventTypeAuthSuccess,
			Severity:  SeverityInfo,
			Outcome:   OutcomeSuccess,
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if got := store.Len(); got > 10 {
		t.Errorf("store has %d events, want the cap respected", got)
	}
}
