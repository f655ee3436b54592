// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"net/http"
	"time"

	"github.com/godshot/godshot/internal/models"
)

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns health status including database connectivity and uptime
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Performance reports per-endpoint request latency statistics
//
// @Summary Get endpoint performance statistics
// @Description Returns per-endpoint request counts and latency percentiles from the in-memory performance monitor
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]middleware.EndpointStats} "Performance statistics retrieved"
// @Router /performance [get]
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	respondJSON(w, http.StatusOK, success(h.PerformanceStats(), started))
}
