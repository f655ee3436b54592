// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/godshot/godshot/internal/auth"
	"github.com/godshot/godshot/internal/config"
	"github.com/godshot/godshot/internal/database"
	"github.com/godshot/godshot/internal/engine"
	"github.com/godshot/godshot/internal/learn"
	"github.com/godshot/godshot/internal/models"
	"github.com/godshot/godshot/internal/storage"
	ws "github.com/godshot/godshot/internal/websocket"
)

// Test helpers

// assertStatusCode checks the HTTP response status code
func assertStatusCode(t *testing.T, got, want int, testName string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected status %d, got %d", testName, want, got)
	}
}

// decodeAPIResponse decodes the response envelope
func decodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder, testName string) *models.APIResponse {
	t.Helper()
	var response models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("%s: failed to decode response: %v", testName, err)
	}
	return &response
}

// assertResponseSuccess checks that the envelope status is success
func assertResponseSuccess(t *testing.T, response *models.APIResponse, testName string) {
	t.Helper()
	if response.Status != "success" {
		t.Errorf("%s: expected status 'success', got '%s'", testName, response.Status)
	}
}

// assertErrorCode checks the envelope error code
func assertErrorCode(t *testing.T, response *models.APIResponse, code, testName string) {
	t.Helper()
	if response.Error == nil {
		t.Fatalf("%s: expected error %s, got none", testName, code)
	}
	if response.Error.Code != code {
		t.Errorf("%s: expected error code %s, got %s", testName, code, response.Error.Code)
	}
}

// assertMapData extracts the response data as a map
func assertMapData(t *testing.T, response *models.APIResponse, testName string) map[string]interface{} {
	t.Helper()
	data, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: response data is not a map", testName)
	}
	return data
}

// newTestEngine creates an engine backed by in-memory storage and database
func newTestEngine(t *testing.T) (*engine.Engine, *database.DB) {
	t.Helper()

	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	db, err := database.New(config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return engine.New(store, db, learn.DefaultConfig()), db
}

// newTestRouter builds the full route tree with auth disabled
func newTestRouter(t *testing.T, hub *ws.Hub) http.Handler {
	t.Helper()

	eng, db := newTestEngine(t)
	cfg := &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          string(auth.AuthModeNone),
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}

	handler := NewHandler(eng, db, cfg, nil, nil, hub, "test")
	authMW := auth.NewMiddleware(nil, auth.AuthModeNone, 5, time.Minute, true)
	t.Cleanup(authMW.Close)

	return NewRouter(handler, authMW, &cfg.Security).SetupChi()
}

// doRequest executes a request with an optional JSON body against the router
func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth_Endpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestHealth_Endpoint")
	response := decodeAPIResponse(t, w, "TestHealth_Endpoint")
	assertResponseSuccess(t, response, "TestHealth_Endpoint")

	data := assertMapData(t, response, "TestHealth_Endpoint")
	if data["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", data["status"])
	}
	if data["database_connected"] != true {
		t.Error("Expected database_connected true")
	}
}

func TestSwitchUser_CreatesSession(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodPost, "/api/v1/users/alice/switch", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestSwitchUser_CreatesSession")
	response := decodeAPIResponse(t, w, "TestSwitchUser_CreatesSession")
	assertResponseSuccess(t, response, "TestSwitchUser_CreatesSession")

	data := assertMapData(t, response, "TestSwitchUser_CreatesSession")
	if data["username"] != "alice" {
		t.Errorf("Expected username alice, got %v", data["username"])
	}
	if _, ok := data["epsilon"].(float64); !ok {
		t.Error("Expected numeric epsilon in response")
	}
}

func TestUsers_ListsRegistered(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/bob/switch", nil)
	doRequest(t, router, http.MethodPost, "/api/v1/users/alice/switch", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/users", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestUsers_ListsRegistered")
	response := decodeAPIResponse(t, w, "TestUsers_ListsRegistered")
	data := assertMapData(t, response, "TestUsers_ListsRegistered")

	users, ok := data["users"].([]interface{})
	if !ok {
		t.Fatal("Expected users array in response")
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	// Lexical order
	if users[0] != "alice" || users[1] != "bob" {
		t.Errorf("Expected [alice bob], got %v", users)
	}
	if data["current"] != "alice" {
		t.Errorf("Expected current alice, got %v", data["current"])
	}
}

func TestSuggest_WithoutUser(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)

	assertStatusCode(t, w.Code, http.StatusConflict, "TestSuggest_WithoutUser")
	response := decodeAPIResponse(t, w, "TestSuggest_WithoutUser")
	assertErrorCode(t, response, "NO_USER", "TestSuggest_WithoutUser")
}

func TestSuggest_WithoutRoastDate(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/carol/switch", nil)
	w := doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)

	assertStatusCode(t, w.Code, http.StatusConflict, "TestSuggest_WithoutRoastDate")
	response := decodeAPIResponse(t, w, "TestSuggest_WithoutRoastDate")
	assertErrorCode(t, response, "NO_ROAST_DATE", "TestSuggest_WithoutRoastDate")
}

func TestSuggestEvaluate_FullCycle(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/dave/switch", nil)

	w := doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "2026-08-10"})
	assertStatusCode(t, w.Code, http.StatusOK, "set roast date")

	w = doRequest(t, router, http.MethodPost, "/api/v1/suggest", map[string]bool{"first_brew": true})
	assertStatusCode(t, w.Code, http.StatusOK, "suggest")
	response := decodeAPIResponse(t, w, "suggest")
	assertResponseSuccess(t, response, "suggest")

	data := assertMapData(t, response, "suggest")
	if recordID, _ := data["record_id"].(string); recordID == "" {
		t.Error("Expected non-empty record_id")
	}
	action, ok := data["action"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected action object in suggestion")
	}
	grind, _ := action["grind_size"].(float64)
	if grind < 1 || grind > 30 {
		t.Errorf("Grind size %v outside valid range", grind)
	}
	mode, _ := data["mode"].(string)
	if mode != "explore" && mode != "exploit" && mode != "baseline" {
		t.Errorf("Unexpected suggestion mode %q", mode)
	}
	state, ok := data["state"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected state object in suggestion")
	}
	if state["is_first_brew"] != true {
		t.Error("Expected is_first_brew true")
	}

	w = doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"overall_experience": 8,
		"brew_time":          28.0,
	})
	assertStatusCode(t, w.Code, http.StatusOK, "evaluate")
	response = decodeAPIResponse(t, w, "evaluate")
	assertResponseSuccess(t, response, "evaluate")

	data = assertMapData(t, response, "evaluate")
	reward, ok := data["reward"].(float64)
	if !ok {
		t.Fatal("Expected numeric reward")
	}
	if reward <= 0 {
		t.Errorf("Expected positive reward for a good brew, got %v", reward)
	}

	// Second evaluation of the same brew is rejected
	w = doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"overall_experience": 5,
	})
	assertStatusCode(t, w.Code, http.StatusConflict, "double evaluate")
	response = decodeAPIResponse(t, w, "double evaluate")
	assertErrorCode(t, response, "ALREADY_EVALUATED", "double evaluate")
}

func TestEvaluate_WithoutSuggestion(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/erin/switch", nil)

	w := doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"overall_experience": 7,
	})

	assertStatusCode(t, w.Code, http.StatusNotFound, "TestEvaluate_WithoutSuggestion")
	response := decodeAPIResponse(t, w, "TestEvaluate_WithoutSuggestion")
	assertErrorCode(t, response, "NO_RECORD", "TestEvaluate_WithoutSuggestion")
}

func TestEvaluate_InvalidRatings(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/frank/switch", nil)

	w := doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"bitterness": 17,
	})

	assertStatusCode(t, w.Code, http.StatusBadRequest, "TestEvaluate_InvalidRatings")
	response := decodeAPIResponse(t, w, "TestEvaluate_InvalidRatings")
	assertErrorCode(t, response, "VALIDATION_ERROR", "TestEvaluate_InvalidRatings")
}

func TestStats_Endpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/grace/switch", nil)
	doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "2026-08-12"})
	doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/stats", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestStats_Endpoint")
	response := decodeAPIResponse(t, w, "TestStats_Endpoint")
	assertResponseSuccess(t, response, "TestStats_Endpoint")

	data := assertMapData(t, response, "TestStats_Endpoint")
	if data["username"] != "grace" {
		t.Errorf("Expected username grace, got %v", data["username"])
	}
	history, ok := data["history"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected history object")
	}
	if total, _ := history["total_brews"].(float64); total != 1 {
		t.Errorf("Expected 1 total brew, got %v", total)
	}
}

func TestRecords_Endpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/heidi/switch", nil)
	doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "2026-08-12"})
	doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)
	doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{"overall_experience": 6})
	doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/records?limit=10", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestRecords_Endpoint")
	response := decodeAPIResponse(t, w, "TestRecords_Endpoint")
	data := assertMapData(t, response, "TestRecords_Endpoint")

	if count, _ := data["count"].(float64); count != 2 {
		t.Errorf("Expected 2 records, got %v", count)
	}
	records, ok := data["records"].([]interface{})
	if !ok || len(records) != 2 {
		t.Fatalf("Expected records array of 2, got %v", data["records"])
	}

	// Oldest first; the first record carries the evaluation
	first, _ := records[0].(map[string]interface{})
	if first["evaluation"] == nil {
		t.Error("Expected evaluation attached to the first record")
	}
}

func TestRecords_InvalidLimit(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/ivan/switch", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/records?limit=-5", nil)

	assertStatusCode(t, w.Code, http.StatusBadRequest, "TestRecords_InvalidLimit")
}

func TestRecommendations_Endpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/judy/switch", nil)
	doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "2026-08-12"})
	doRequest(t, router, http.MethodPost, "/api/v1/suggest", nil)
	doRequest(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{"overall_experience": 9})

	w := doRequest(t, router, http.MethodGet, "/api/v1/recommendations?k=3", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestRecommendations_Endpoint")
	response := decodeAPIResponse(t, w, "TestRecommendations_Endpoint")
	data := assertMapData(t, response, "TestRecommendations_Endpoint")

	recs, ok := data["recommendations"].([]interface{})
	if !ok || len(recs) == 0 {
		t.Fatalf("Expected non-empty recommendations, got %v", data["recommendations"])
	}
	top, _ := recs[0].(map[string]interface{})
	if top["action"] == nil {
		t.Error("Expected action in recommendation")
	}
	if _, ok := top["value"].(float64); !ok {
		t.Error("Expected numeric value in recommendation")
	}
}

func TestRecommendations_InvalidK(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/kate/switch", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/recommendations?k=0", nil)

	assertStatusCode(t, w.Code, http.StatusBadRequest, "TestRecommendations_InvalidK")
}

func TestRoastDate_RoundTrip(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/liam/switch", nil)

	// Unset at first
	w := doRequest(t, router, http.MethodGet, "/api/v1/roast-date", nil)
	assertStatusCode(t, w.Code, http.StatusOK, "get unset roast date")
	response := decodeAPIResponse(t, w, "get unset roast date")
	data := assertMapData(t, response, "get unset roast date")
	if data["set"] != false {
		t.Error("Expected set false before storing a roast date")
	}

	w = doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "2026-08-01"})
	assertStatusCode(t, w.Code, http.StatusOK, "put roast date")

	w = doRequest(t, router, http.MethodGet, "/api/v1/roast-date", nil)
	response = decodeAPIResponse(t, w, "get roast date")
	data = assertMapData(t, response, "get roast date")
	if data["set"] != true {
		t.Error("Expected set true after storing a roast date")
	}
	stored, _ := data["roast_date"].(string)
	if !strings.HasPrefix(stored, "2026-08-01") {
		t.Errorf("Expected stored date 2026-08-01, got %q", stored)
	}
}

func TestSetRoastDate_InvalidDate(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodPost, "/api/v1/users/mona/switch", nil)

	w := doRequest(t, router, http.MethodPut, "/api/v1/roast-date", map[string]string{"date": "not-a-date"})

	assertStatusCode(t, w.Code, http.StatusBadRequest, "TestSetRoastDate_InvalidDate")
	response := decodeAPIResponse(t, w, "TestSetRoastDate_InvalidDate")
	assertErrorCode(t, response, "VALIDATION_ERROR", "TestSetRoastDate_InvalidDate")
}

func TestSwitchUser_EmptyUsername(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	// Chi cannot match an empty path parameter, so this hits the 404 handler
	w := doRequest(t, router, http.MethodPost, "/api/v1/users//switch", nil)
	if w.Code == http.StatusOK {
		t.Error("Expected failure for empty username")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/suggest", nil)

	assertStatusCode(t, w.Code, http.StatusMethodNotAllowed, "TestMethodNotAllowed")
}

func TestPerformance_Endpoint(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	doRequest(t, router, http.MethodGet, "/api/v1/users", nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/performance", nil)

	assertStatusCode(t, w.Code, http.StatusOK, "TestPerformance_Endpoint")
	response := decodeAPIResponse(t, w, "TestPerformance_Endpoint")
	assertResponseSuccess(t, response, "TestPerformance_Endpoint")
}

func TestWebSocket_Endpoint(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	router := newTestRouter(t, hub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Ping round trip through the hub client
	if err := conn.WriteJSON(ws.Message{Type: ws.MessageTypePing}); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}
	if msg.Type != ws.MessageTypePong {
		t.Errorf("Expected pong, got %q", msg.Type)
	}
}

func TestWebSocket_HubUnavailable(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	w := doRequest(t, router, http.MethodGet, "/api/v1/ws", nil)

	assertStatusCode(t, w.Code, http.StatusServiceUnavailable, "TestWebSocket_HubUnavailable")
	response := decodeAPIResponse(t, w, "TestWebSocket_HubUnavailable")
	assertErrorCode(t, response, "SERVICE_UNAVAILABLE", "TestWebSocket_HubUnavailable")
}
