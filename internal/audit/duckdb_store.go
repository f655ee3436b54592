// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/godshot/godshot/internal/logging"
)

// DuckDBStore implements Store using DuckDB, sharing the brew history
// database so the audit trail survives restarts and stays queryable
// with plain SQL.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store. Call CreateTable
// before the first Save.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_events table and its indexes if they
// do not exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			outcome TEXT NOT NULL,

			actor_id TEXT NOT NULL,
			actor_type TEXT NOT NULL,
			actor_name TEXT,
			actor_auth_method TEXT,

			target_id TEXT,
			target_type TEXT,
			target_name TEXT,

			source_ip TEXT NOT NULL,
			source_user_agent TEXT,
			source_hostname TEXT,

			action TEXT NOT NULL,
			description TEXT NOT NULL,
			metadata JSON,

			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type);
		CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_events(outcome);
		CREATE INDEX IF NOT EXISTS idx_audit_actor_id ON audit_events(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_source_ip ON audit_events(source_ip);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}

	logging.Debug().Msg("Audit events table ready")
	return nil
}

// Save persists an audit event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	query := `
		INSERT INTO audit_events (
			id, timestamp, type, severity, outcome,
			actor_id, actor_type, actor_name, actor_auth_method,
			target_id, target_type, target_name,
			source_ip, source_user_agent, source_hostname,
			action, description, metadata,
			request_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	targetID, targetType, targetName := targetFields(event.Target)

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Type),
		string(event.Severity),
		string(event.Outcome),
		event.Actor.ID,
		event.Actor.Type,
		event.Actor.Name,
		event.Actor.AuthMethod,
		targetID,
		targetType,
		targetName,
		event.Source.IPAddress,
		event.Source.UserAgent,
		event.Source.Hostname,
		event.Action,
		event.Description,
		metadataField(event.Metadata),
		event.RequestID,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}

	return nil
}

// targetFields flattens an optional target into nullable columns.
func targetFields(target *Target) (*string, *string, *string) {
	if target == nil {
		return nil, nil, nil
	}
	return &target.ID, &target.Type, &target.Name
}

// metadataField converts metadata to a nullable string for the JSON
// column.
func metadataField(metadata []byte) *string {
	if len(metadata) == 0 {
		return nil
	}
	s := string(metadata)
	return &s
}

// Query retrieves events matching the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query, args := buildQuery(filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, nil
}

// Count returns the number of events matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	query, args := buildQuery(filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	return count, nil
}

// Delete removes events older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Deleted old audit events")
	}

	return count, nil
}

// buildQuery constructs the SQL query for the filter.
func buildQuery(filter QueryFilter, countOnly bool) (string, []interface{}) {
	conditions, args := buildFilterConditions(filter)

	var query string
	if countOnly {
		query = "SELECT COUNT(*) FROM audit_events"
	} else {
		// JSON columns are cast to VARCHAR for scanning
		query = `
			SELECT
				id, timestamp, type, severity, outcome,
				actor_id, actor_type, actor_name, actor_auth_method,
				target_id, target_type, target_name,
				source_ip, source_user_agent, source_hostname,
				action, description,
				CAST(metadata AS VARCHAR) AS metadata,
				request_id
			FROM audit_events
		`
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !countOnly {
		query = appendOrderAndLimit(query, filter)
	}

	return query, args
}

// buildFilterConditions builds WHERE clause conditions from a filter.
func buildFilterConditions(filter QueryFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if cond := inCondition("type", filter.Types, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := inCondition("severity", filter.Severities, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := inCondition("outcome", filter.Outcomes, &args); cond != "" {
		conditions = append(conditions, cond)
	}

	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.SourceIP != "" {
		conditions = append(conditions, "source_ip = ?")
		args = append(args, filter.SourceIP)
	}

	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}

	return conditions, args
}

// inCondition creates a SQL IN condition for a slice of string values.
func inCondition[T ~string](column string, values []T, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

// appendOrderAndLimit adds ORDER BY, LIMIT, and OFFSET clauses. The
// order field is checked against an allowlist; anything else falls
// back to timestamp.
func appendOrderAndLimit(query string, filter QueryFilter) string {
	orderBy := "timestamp"
	validFields := map[string]bool{
		"timestamp": true, "type": true, "severity": true,
		"outcome": true, "actor_id": true,
	}
	if filter.OrderBy != "" && validFields[filter.OrderBy] {
		orderBy = filter.OrderBy
	}

	direction := "ASC"
	if filter.OrderDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query
}

// scanEvent scans a result row into an Event, unpacking the nullable
// target and metadata columns.
func scanEvent(rows *sql.Rows) (*Event, error) {
	var (
		event      Event
		eventType  string
		severity   string
		outcome    string
		targetID   sql.NullString
		targetType sql.NullString
		targetName sql.NullString
		metadata   sql.NullString
	)

	err := rows.Scan(
		&event.ID,
		&event.Timestamp,
		&eventType,
		&severity,
		&outcome,
		&event.Actor.ID,
		&event.Actor.Type,
		&event.Actor.Name,
		&event.Actor.AuthMethod,
		&targetID,
		&targetType,
		&targetName,
		&event.Source.IPAddress,
		&event.Source.UserAgent,
		&event.Source.Hostname,
		&event.Action,
		&event.Description,
		&metadata,
		&event.RequestID,
	)
	if err != nil {
		return nil, err
	}

	event.Type = EventType(eventType)
	event.Severity = Severity(severity)
	event.Outcome = Outcome(outcome)

	if targetID.Valid {
		event.Target = &Target{
			ID:   targetID.String,
			Type: targetType.String,
			Name: targetName.String,
		}
	}
	if metadata.Valid && metadata.String != "" {
		event.Metadata = []byte(metadata.String)
	}

	return &event, nil
}
