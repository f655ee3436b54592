// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package audit provides a security audit trail for the HTTP API.
//
// Serve mode records security-relevant events: authentication attempts,
// logouts, brewing profile switches, roast date changes, and the
// automatic session resume at startup. The trail lives in the same
// DuckDB database as the brew history, so it survives restarts and can
// be inspected with plain SQL alongside the brewing data. The shell
// and one-shot commands never write audit events; they run locally as
// the operating user.
//
// # Event Types
//
// Authentication events:
//   - auth.success: successful API login
//   - auth.failure: failed API login attempt
//   - auth.logout: logout
//
// Profile events:
//   - profile.switch: switch to a brewing profile
//   - profile.roast_date: roast date change on the active profile
//
// Session events:
//   - session.resume: automatic resume of the last session at startup
//
// # Architecture
//
// The logger uses a producer-consumer pattern:
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> Store
//	                     |                      |
//	                 Non-blocking           Background goroutine
//
// Events are buffered in a channel so request handling never waits on
// the database. A background goroutine drains the buffer; when the
// buffer is full, events are dropped with a warning instead of
// blocking the caller.
//
// # Usage
//
//	store := audit.NewDuckDBStore(db.SQL())
//	if err := store.CreateTable(ctx); err != nil {
//	    return err
//	}
//	logger := audit.NewLogger(store, audit.DefaultConfig())
//	defer logger.Close()
//	logger.StartCleanupRoutine(ctx)
//
//	logger.LogAuthSuccess(username, audit.SourceFromRequest(r))
//	logger.LogProfileSwitch(apiUser, "alice", audit.SourceFromRequest(r))
//
// Querying the trail:
//
//	filter := audit.DefaultQueryFilter()
//	filter.Types = []audit.EventType{audit.EventTypeAuthFailure}
//	events, err := logger.Query(ctx, filter)
//
// All Logger methods are safe on a nil receiver, so callers can hold
// an optional *Logger and skip the enabled checks.
//
// # Retention
//
// StartCleanupRoutine deletes events older than the configured
// retention period on a daily interval. The GET /api/v1/audit endpoint
// exposes the trail to authenticated clients.
//
// # See Also
//
//   - internal/auth: authentication middleware emitting trail sources
//   - internal/api: audit handlers and event emission points
//   - internal/database: the shared DuckDB database
package audit
