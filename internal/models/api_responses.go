// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. It provides a consistent structure for both successful and
// error responses.
//
// Status field values:
//   - "success": Request completed, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"reward": 0.65, "epsilon": 0.0995},
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z", "query_time_ms": 3}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Overall must be 10 or less"
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability. QueryTimeMS
// reports the handler's processing time in milliseconds and is omitted
// when zero.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NO_USER: No active brewing session
//   - NO_ROAST_DATE: Roast date required before suggesting
//   - NO_RECORD: Nothing to evaluate yet
//   - ALREADY_EVALUATED: The last brew already has an evaluation
//   - AUTHENTICATION_ERROR: Invalid or missing credentials
//   - DATABASE_ERROR: Query execution failure
//   - METHOD_NOT_ALLOWED: Wrong HTTP method
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LoginRequest is the payload of the JWT login endpoint. The password
// travels in plaintext, so production deployments should sit behind TLS.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the signed JWT for subsequent requests. The
// token is additionally set as an HTTP-only cookie so browser clients
// never touch it from script.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}
