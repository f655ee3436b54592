// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/metrics"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// MinSeverity filters events below this severity.
	MinSeverity Severity `json:"min_severity"`

	// RetentionDays is how long to keep audit events.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		MinSeverity:     SeverityInfo,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      256,
	}
}

// Logger records security audit events asynchronously. Events are
// buffered and written by a background goroutine so audit persistence
// never blocks request handling; when the buffer is full, events are
// dropped with a warning rather than stalling the caller.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	done      chan struct{}
}

// NewLogger creates an audit logger writing to store and starts its
// background writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	go l.asyncWriter()

	return l
}

// asyncWriter drains the event buffer into the store.
func (l *Logger) asyncWriter() {
	defer close(l.done)

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events before exiting
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists an event to the store.
func (l *Logger) writeEvent(event *Event) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to save audit event")
	}
}

// Log records an audit event. Safe to call on a nil logger, which
// makes audit optional at every call site.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled {
		return
	}

	if severityRank(event.Severity) < severityRank(l.config.MinSeverity) {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
		metrics.RecordAuditEvent(string(event.Type), string(event.Outcome))
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// severityRank orders severities for threshold filtering.
func severityRank(severity Severity) int {
	switch severity {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 1
	}
}

// Close stops the background writer after draining buffered events.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	close(l.stopChan)
	<-l.done
	return nil
}

// StartCleanupRoutine deletes events older than the retention period
// on the configured interval until ctx is cancelled.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	if l == nil || l.store == nil {
		return
	}

	interval := l.config.CleanupInterval
	if interval <= 0 {
		interval = DefaultConfig().CleanupInterval
	}
	retention := l.config.RetentionDays

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retention)
				count, err := l.store.Delete(ctx, cutoff)
				if err != nil {
					logging.Error().Err(err).Msg("Audit retention cleanup failed")
				} else if count > 0 {
					logging.Info().Int64("count", count).Msg("Cleaned up expired audit events")
				}
			}
		}
	}()
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// LogAuthSuccess records a successful API authentication.
func (l *Logger) LogAuthSuccess(username string, source Source) {
	l.Log(&Event{
		Type:        EventTypeAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       userActor(username, "jwt"),
		Source:      source,
		Action:      "authenticate",
		Description: "User authenticated successfully",
	})
}

// LogAuthFailure records a failed API authentication attempt.
func (l *Logger) LogAuthFailure(username string, source Source, reason string) {
	l.Log(&Event{
		Type:        EventTypeAuthFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       userActor(username, ""),
		Source:      source,
		Action:      "authenticate",
		Description: "Authentication failed: " + reason,
		Metadata:    mustJSON(map[string]string{"reason": reason}),
	})
}

// LogLogout records a logout.
func (l *Logger) LogLogout(username string, source Source) {
	l.Log(&Event{
		Type:        EventTypeLogout,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       userActor(username, "jwt"),
		Source:      source,
		Action:      "logout",
		Description: "User logged out",
	})
}

// LogProfileSwitch records a switch to a brewing profile.
func (l *Logger) LogProfileSwitch(actorName, profile string, source Source) {
	l.Log(&Event{
		Type:     EventTypeProfileSwitch,
		Severity: SeverityInfo,
		Outcome:  OutcomeSuccess,
		Actor:    userActor(actorName, "jwt"),
		Target: &Target{
			ID:   profile,
			Type: "profile",
			Name: profile,
		},
		Source:      source,
		Action:      "switch",
		Description: "Switched to brewing profile " + profile,
	})
}

// LogRoastDateSet records a roast date change on the active profile.
func (l *Logger) LogRoastDateSet(actorName, profile string, roastDate time.Time, source Source) {
	l.Log(&Event{
		Type:     EventTypeRoastDateSet,
		Severity: SeverityInfo,
		Outcome:  OutcomeSuccess,
		Actor:    userActor(actorName, "jwt"),
		Target: &Target{
			ID:   profile,
			Type: "profile",
			Name: profile,
		},
		Source:      source,
		Action:      "set_roast_date",
		Description: "Roast date set for profile " + profile,
		Metadata:    mustJSON(map[string]string{"roast_date": roastDate.Format("2006-01-02")}),
	})
}

// LogSessionResume records the automatic resume of the last session at
// server startup.
func (l *Logger) LogSessionResume(profile string) {
	l.Log(&Event{
		Type:     EventTypeSessionResume,
		Severity: SeverityInfo,
		Outcome:  OutcomeSuccess,
		Actor:    SystemActor(),
		Target: &Target{
			ID:   profile,
			Type: "profile",
			Name: profile,
		},
		Source:      Source{IPAddress: "localhost"},
		Action:      "resume",
		Description: "Resumed last session for profile " + profile,
	})
}

// userActor builds an Actor for an API user.
func userActor(username, authMethod string) Actor {
	return Actor{
		ID:         username,
		Type:       "user",
		Name:       username,
		AuthMethod: authMethod,
	}
}

// SystemActor returns the Actor for events godshot emits on its own.
func SystemActor() Actor {
	return Actor{
		ID:   "system",
		Type: "system",
		Name: "Godshot",
	}
}

// SourceFromRequest builds a Source from an HTTP request, preferring
// proxy-forwarded client addresses when present.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = xff
	} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip = xri
	}

	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		Hostname:  r.Host,
	}
}

// mustJSON converts a value to JSON, returning an empty object on
// error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
