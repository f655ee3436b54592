// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"net/http"
	"time"

	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/models"
)

// AuditEvents lists security audit events
//
// @Summary List audit events
// @Description Returns security audit events (logins, logouts, profile switches, roast date changes), newest first. Requires the audit trail to be enabled.
// @Tags Auth
// @Accept json
// @Produce json
// @Param limit query int false "Maximum events to return" default(50) minimum(1) maximum(500)
// @Param offset query int false "Events to skip for pagination" default(0) minimum(0)
// @Param type query string false "Filter by event type (e.g. auth.failure)"
// @Param outcome query string false "Filter by outcome (success or failure)"
// @Param since query string false "Only events at or after this RFC3339 timestamp"
// @Success 200 {object} models.APIResponse{data=models.AuditEventsResponse} "Audit events retrieved"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 503 {object} models.APIResponse "Audit trail disabled"
// @Security BearerAuth
// @Router /audit [get]
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	if h.audit == nil {
		respondError(w, http.StatusServiceUnavailable, "AUDIT_DISABLED", "Audit trail is not enabled", nil)
		return
	}

	query := AuditQuery{
		Limit:  getIntParam(r, "limit", 50),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	filter := audit.DefaultQueryFilter()
	filter.Limit = query.Limit
	filter.Offset = query.Offset
	if eventType := r.URL.Query().Get("type"); eventType != "" {
		filter.Types = []audit.EventType{audit.EventType(eventType)}
	}
	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		filter.Outcomes = []audit.Outcome{audit.Outcome(outcome)}
	}
	if since := r.URL.Query().Get("since"); since != "" {
		start, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "since must be an RFC3339 timestamp", nil)
			return
		}
		filter.StartTime = &start
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "Failed to query audit events", err)
		return
	}

	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "Failed to count audit events", err)
		return
	}

	resp := success(models.AuditEventsResponse{
		Events: events,
		Count:  len(events),
		Total:  total,
	}, started)
	respondJSONNoStore(w, http.StatusOK, resp)
}
