// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/godshot/godshot/internal/audit"
	"github.com/godshot/godshot/internal/brew"
	"github.com/godshot/godshot/internal/logging"
	"github.com/godshot/godshot/internal/models"
	ws "github.com/godshot/godshot/internal/websocket"
)

// SwitchUser activates a brewing session for the named user
//
// @Summary Switch the active user
// @Description Persists the previous user's learning state, loads or creates the named user's profile, and makes it the active session
// @Tags Session
// @Accept json
// @Produce json
// @Param username path string true "Username to switch to"
// @Success 200 {object} models.APIResponse{data=models.SwitchUserResponse} "Session switched"
// @Failure 400 {object} models.APIResponse "Invalid username"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /users/{username}/switch [post]
func (h *Handler) SwitchUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	started := time.Now()

	username := chi.URLParam(r, "username")
	if apiErr := validateRequest(&SwitchUserValidation{Username: username}); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.engine.SwitchUser(r.Context(), username); err != nil {
		respondEngineError(w, err)
		return
	}
	h.audit.LogProfileSwitch(h.apiUser(r), username, audit.SourceFromRequest(r))

	resp := models.SwitchUserResponse{
		Username: h.engine.CurrentUser(),
		Epsilon:  h.engine.Epsilon(),
	}
	if date, ok, err := h.engine.RoastDate(r.Context()); err == nil && ok {
		resp.RoastDate = &date
	}

	respondJSON(w, http.StatusOK, success(resp, started))
}

// Users lists registered users
//
// @Summary List users
// @Description Returns all registered usernames in lexical order and marks the active session's user
// @Tags Session
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.UserListResponse} "Users retrieved"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /users [get]
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	users, err := h.engine.Users(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, success(models.UserListResponse{
		Users:   users,
		Current: h.engine.CurrentUser(),
	}, started))
}

// Suggest proposes brewing parameters for the next shot
//
// @Summary Suggest a brew
// @Description Suggests grind size, brew volume, and coffee dose for the current user and stores the suggestion in the history
// @Tags Brewing
// @Accept json
// @Produce json
// @Param request body SuggestRequest false "Brewing context"
// @Success 200 {object} models.APIResponse{data=models.SuggestionResponse} "Suggestion created"
// @Failure 409 {object} models.APIResponse "No user selected or no roast date set"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /suggest [post]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	started := time.Now()

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}

	record, mode, err := h.engine.Suggest(r.Context(), req.FirstBrew)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	resp := models.SuggestionResponse{
		RecordID:    record.ID,
		Action:      record.Action,
		State:       record.State,
		Mode:        string(mode),
		SuggestedAt: record.Timestamp,
	}

	if h.wsHub != nil {
		h.wsHub.Broadcast(ws.MessageTypeBrewSuggested, resp)
	}

	respondJSON(w, http.StatusOK, success(resp, started))
}

// Evaluate rates the last suggested brew
//
// @Summary Evaluate the last brew
// @Description Attaches taste ratings to the most recent brew, computes the reward, and updates the learning state
// @Tags Brewing
// @Accept json
// @Produce json
// @Param evaluation body brew.Evaluation true "Taste ratings (all fields optional, 1-10 scales)"
// @Success 200 {object} models.APIResponse{data=models.EvaluationResponse} "Evaluation recorded"
// @Failure 400 {object} models.APIResponse "Invalid ratings"
// @Failure 404 {object} models.APIResponse "No brew to evaluate"
// @Failure 409 {object} models.APIResponse "Already evaluated"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /evaluate [post]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	started := time.Now()

	var eval brew.Evaluation
	if err := json.NewDecoder(r.Body).Decode(&eval); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&eval); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	reward, err := h.engine.Evaluate(r.Context(), eval)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	resp := models.EvaluationResponse{
		Reward:  reward,
		Epsilon: h.engine.Epsilon(),
	}

	if h.wsHub != nil {
		h.wsHub.Broadcast(ws.MessageTypeBrewEvaluated, resp)
	}
	h.broadcastStats(r.Context())

	respondJSON(w, http.StatusOK, success(resp, started))
}

// Stats reports session statistics
//
// @Summary Get session statistics
// @Description Returns brew history aggregates and the learning state of the active user
// @Tags Session
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=engine.Stats} "Statistics retrieved"
// @Failure 409 {object} models.APIResponse "No user selected"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, success(stats, started))
}

// Records returns the brew history
//
// @Summary Get brew history
// @Description Returns the active user's brew records, oldest first
// @Tags Session
// @Accept json
// @Produce json
// @Param limit query int false "Maximum number of records (0 for all)" default(50) minimum(0) maximum(10000)
// @Success 200 {object} models.APIResponse{data=models.RecordsResponse} "Records retrieved"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 409 {object} models.APIResponse "No user selected"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /records [get]
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	query := RecordsQuery{Limit: getIntParam(r, "limit", 50)}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	records, err := h.engine.Records(r.Context(), query.Limit)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, success(models.RecordsResponse{
		Records: records,
		Count:   len(records),
	}, started))
}

// Recommendations lists the best known actions
//
// @Summary Get brewing recommendations
// @Description Returns up to k learned actions for the current brewing context, best first, without recording anything
// @Tags Brewing
// @Accept json
// @Produce json
// @Param k query int false "Number of recommendations" default(3) minimum(1) maximum(50)
// @Param first_brew query bool false "Recommend for the first brew of a bag" default(false)
// @Success 200 {object} models.APIResponse{data=models.RecommendationsResponse} "Recommendations retrieved"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 409 {object} models.APIResponse "No user selected or no roast date set"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	query := RecommendationsQuery{
		K:         getIntParam(r, "k", 3),
		FirstBrew: getBoolParam(r, "first_brew", false),
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	actions, err := h.engine.BestActions(r.Context(), query.FirstBrew, query.K)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, success(models.RecommendationsResponse{
		Recommendations: actions,
		Count:           len(actions),
	}, started))
}

// GetRoastDate returns the active user's roast date
//
// @Summary Get the roast date
// @Description Returns the roast date of the beans currently in use, if set
// @Tags Session
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.RoastDateResponse} "Roast date retrieved"
// @Failure 409 {object} models.APIResponse "No user selected"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /roast-date [get]
func (h *Handler) GetRoastDate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	started := time.Now()

	date, ok, err := h.engine.RoastDate(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}

	resp := models.RoastDateResponse{Set: ok}
	if ok {
		resp.RoastDate = &date
	}

	respondJSON(w, http.StatusOK, success(resp, started))
}

// SetRoastDate updates the active user's roast date
//
// @Summary Set the roast date
// @Description Stores the roast date of the beans currently in use, normalized to midnight UTC
// @Tags Session
// @Accept json
// @Produce json
// @Param request body RoastDateRequest true "Roast date (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} models.APIResponse{data=models.RoastDateResponse} "Roast date stored"
// @Failure 400 {object} models.APIResponse "Invalid date"
// @Failure 409 {object} models.APIResponse "No user selected"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /roast-date [put]
func (h *Handler) SetRoastDate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	started := time.Now()

	var req RoastDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	date, err := parseRoastDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Date must be YYYY-MM-DD or RFC3339", nil)
		return
	}

	if err := h.engine.SetRoastDate(r.Context(), date); err != nil {
		respondEngineError(w, err)
		return
	}

	stored, _, err := h.engine.RoastDate(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	h.audit.LogRoastDateSet(h.apiUser(r), h.engine.CurrentUser(), stored, audit.SourceFromRequest(r))

	respondJSON(w, http.StatusOK, success(models.RoastDateResponse{
		RoastDate: &stored,
		Set:       true,
	}, started))
}

// parseRoastDate accepts a plain date or a full RFC3339 timestamp.
func parseRoastDate(value string) (time.Time, error) {
	if date, err := time.Parse("2006-01-02", value); err == nil {
		return date, nil
	}
	return time.Parse(time.RFC3339, value)
}

// WebSocket handles WebSocket connections
//
// @Summary Establish WebSocket connection
// @Description Establishes a WebSocket connection for real-time suggestion and statistics updates
// @Tags Realtime
// @Accept json
// @Produce json
// @Success 101 {string} string "Switching Protocols"
// @Failure 503 {object} models.APIResponse "WebSocket hub not available"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
