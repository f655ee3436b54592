// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package models defines the request and response structures of the HTTP API.

Every endpoint wraps its payload in APIResponse, the standardized envelope
with a status discriminator, response metadata, and structured error
details. The payload structures reference the domain types from
internal/brew and internal/learn directly, so API clients see the same
field names the rest of the application uses.

Key Components:

  - APIResponse: Standardized response wrapper
  - APIError: Structured error details with machine-readable codes
  - Metadata: Response metadata (timestamp, query time)
  - LoginRequest / LoginResponse: JWT authentication exchange
  - SuggestionResponse, EvaluationResponse: brew workflow payloads

Usage Example - API Response:

	response := models.APIResponse{
	    Status: "success",
	    Data: models.EvaluationResponse{
	        Reward:  0.65,
	        Epsilon: 0.0995,
	    },
	    Metadata: models.Metadata{Timestamp: time.Now()},
	}

	// Error response
	errorResponse := models.APIResponse{
	    Status: "error",
	    Error: &models.APIError{
	        Code:    "VALIDATION_ERROR",
	        Message: "Overall must be 10 or less",
	    },
	    Metadata: models.Metadata{Timestamp: time.Now()},
	}

Thread Safety:

All models are plain data structures with no internal state. They are
safe for concurrent read access after creation.

See Also:

  - internal/api: HTTP handlers producing these models
  - internal/brew: Domain types referenced by the payloads
*/
package models
