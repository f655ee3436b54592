// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Parallel()

	t.Run("passes through successful request", func(t *testing.T) {
		t.Parallel()
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Errorf("Expected body OK, got %q", rec.Body.String())
		}
	})

	t.Run("passes through error response", func(t *testing.T) {
		t.Parallel()
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", rec.Code)
		}
	})

	t.Run("defaults status to 200 when handler never writes header", func(t *testing.T) {
		t.Parallel()
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("implicit"))
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rec.Code)
		}
	})

	t.Run("handler duration does not distort response", func(t *testing.T) {
		t.Parallel()
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(5 * time.Millisecond)
			w.WriteHeader(http.StatusAccepted)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/slow", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Errorf("Expected status 202, got %d", rec.Code)
		}
	})
}

func TestMetricsResponseWriter_CapturesStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapper := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusTeapot)

	if wrapper.statusCode != http.StatusTeapot {
		t.Errorf("Expected captured status 418, got %d", wrapper.statusCode)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected recorded status 418, got %d", rec.Code)
	}
}

func TestMetricsResponseWriter_HijackUnsupported(t *testing.T) {
	t.Parallel()

	// httptest.ResponseRecorder does not implement http.Hijacker
	wrapper := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	if _, _, err := wrapper.Hijack(); err == nil {
		t.Error("Expected hijack error for non-hijackable writer")
	}
}
