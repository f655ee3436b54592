// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/models"
	"github.com/godshot/godshot/internal/storage"
	"github.com/godshot/godshot/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection. Newlines, carriage returns, and other control
// characters are replaced with a hex escape.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with caching headers for data
// endpoints.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, status, response)
}

// respondJSONNoStore sends a JSON response that must never be cached.
// Used for responses carrying credentials.
func respondJSONNoStore(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondEngineError maps engine sentinel errors to API error codes.
// Unknown errors become a 500 without leaking their details to the
// client.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoUser):
		respondError(w, http.StatusConflict, "NO_USER", "No user selected. Switch to a user first.", nil)
	case errors.Is(err, engine.ErrNoRoastDate):
		respondError(w, http.StatusConflict, "NO_ROAST_DATE", "No roast date set. Set the roast date first.", nil)
	case errors.Is(err, engine.ErrNoRecord):
		respondError(w, http.StatusNotFound, "NO_RECORD", "No brew to evaluate. Request a suggestion first.", nil)
	case errors.Is(err, engine.ErrAlreadyEvaluated):
		respondError(w, http.StatusConflict, "ALREADY_EVALUATED", "The last brew has already been evaluated.", nil)
	case errors.Is(err, storage.ErrEmptyUsername):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username must not be empty", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed", err)
	}
}

// respondValidationError sends a 400 carrying the field-level details
// from request validation.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil when validation passes.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// requireMethod enforces the HTTP method, answering 405 otherwise.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getBoolParam extracts a boolean query parameter with a default value.
func getBoolParam(r *http.Request, key string, defaultValue bool) bool {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// success wraps a payload in the standard envelope with timing metadata.
func success(data interface{}, started time.Time) *models.APIResponse {
	return &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	}
}
