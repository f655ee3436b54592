// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Request validation structures for API endpoints.
//
// These structs carry go-playground/validator tags and are checked with
// validateRequest before a handler touches the engine. Evaluation
// bodies decode directly into brew.Evaluation, which carries its own
// validation tags.
package api

// LoginRequestValidation mirrors models.LoginRequest with validation tags.
type LoginRequestValidation struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1"`
}

// SuggestRequest is the body of POST /api/v1/suggest. An empty body is
// equivalent to first_brew=false.
type SuggestRequest struct {
	FirstBrew bool `json:"first_brew"`
}

// RoastDateRequest is the body of PUT /api/v1/roast-date. Date accepts
// YYYY-MM-DD or RFC3339.
type RoastDateRequest struct {
	Date string `json:"date" validate:"required"`
}

// RecommendationsQuery validates the query parameters of
// GET /api/v1/recommendations.
type RecommendationsQuery struct {
	K         int  `validate:"min=1,max=50"`
	FirstBrew bool
}

// RecordsQuery validates the query parameters of GET /api/v1/records.
// Limit 0 returns the full history.
type RecordsQuery struct {
	Limit int `validate:"min=0,max=10000"`
}

// SwitchUserValidation validates the username path parameter of
// POST /api/v1/users/{username}/switch.
type SwitchUserValidation struct {
	Username string `validate:"required,min=1,max=64"`
}

// AuditQuery validates the query parameters of GET /api/v1/audit.
type AuditQuery struct {
	Limit  int `validate:"min=1,max=500"`
	Offset int `validate:"min=0"`
}
