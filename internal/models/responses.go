// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package models

import (
	"time"

	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/learn"
)

// HealthStatus is the health check response.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// SwitchUserResponse confirms the active session after a user switch.
// RoastDate is omitted when the user has not set one yet.
type SwitchUserResponse struct {
	Username  string     `json:"username"`
	RoastDate *time.Time `json:"roast_date,omitempty"`
	Epsilon   float64    `json:"epsilon"`
}

// SuggestionResponse carries a suggested brew and the history record it
// was stored under.
type SuggestionResponse struct {
	RecordID    string      `json:"record_id"`
	Action      brew.Action `json:"action"`
	State       brew.State  `json:"state"`
	Mode        string      `json:"mode"`
	SuggestedAt time.Time   `json:"suggested_at"`
}

// EvaluationResponse reports the reward computed from an evaluation and
// the exploration rate after the learning step.
type EvaluationResponse struct {
	Reward  float64 `json:"reward"`
	Epsilon float64 `json:"epsilon"`
}

// RoastDateResponse returns the active user's roast date. Set is false
// and RoastDate omitted when none has been recorded.
type RoastDateResponse struct {
	RoastDate *time.Time `json:"roast_date,omitempty"`
	Set       bool       `json:"set"`
}

// RecordsResponse wraps a page of brew history, oldest first.
type RecordsResponse struct {
	Records []brew.Record `json:"records"`
	Count   int           `json:"count"`
}

// RecommendationsResponse lists the best known actions for the current
// state, highest value first.
type RecommendationsResponse struct {
	Recommendations []learn.ScoredAction `json:"recommendations"`
	Count           int                  `json:"count"`
}

// UserListResponse lists registered usernames in lexical order.
// Current names the active session's user and is omitted when no user
// is selected.
type UserListResponse struct {
	Users   []string `json:"users"`
	Current string   `json:"current,omitempty"`
}

// AuditEventsResponse wraps a page of security audit events, newest
// first. Total counts all events matching the filter regardless of
// pagination.
type AuditEventsResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
	Total  int64         `json:"total"`
}
