package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okanon/oracle/internal/log"
)

func TestHealth_Liveness(t *testing.T) {
	mux := http.NewServeMux()
	newHealthHandler(nil, log.NewNop()).registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("GET /health body = %q, want ok", rec.Body.String())
	}
}

func TestHealth_ReadinessWithoutPool(t *testing.T) {
	mux := http.NewServeMux()
	newHealthHandler(nil, log.NewNop()).registerRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /ready without pool status = %d, want 503", rec.Code)
	}
}
