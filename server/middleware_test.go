package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codice/inventory-api/config"
	"github.com/codice/inventory-api/logging"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Index page", "/", 0},
		{"Health endpoint", "/health", 5},
		{"Metrics endpoint", "/metrics", 5},
		{"Full item catalog", "/items", 50},
		{"Published suggestions", "/suggestions", 20},
		{"On-demand advisor run", "/suggestions/AMX-500", 100},
		{"Item search", "/items/search/amoxicilina", 100},
		{"Dispense", "/dispense", 50},
		{"Batch dispense", "/dispense/batch", 50},
		{"Dispense feed", "/dispenses/1", 20},
		{"Receive lot", "/lots", 30},
		{"List lots", "/lots/AMX-500/1", 30},
		{"Branch inventory", "/inventory/1", 50},
		{"Expiry alerts", "/alerts/expiry", 30},
		{"Branches default", "/branches", 20},
		{"Single item default", "/items/AMX-500", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			cost := getTokenCost(req)
			if cost != tt.expectedCost {
				t.Errorf("getTokenCost(%s): expected %d, got %d", tt.path, tt.expectedCost, cost)
			}
		})
	}
}

func TestRateLimitHandler(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected rate limit headers, got %v", rec.Header())
	}
	if rec.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected remaining tokens header")
	}
}

func TestRateLimitHandler_Exhaustion(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// A fresh client has 1000 tokens; search costs 100, so the 11th
	// request must be rejected.
	clientIP := "198.51.100.99:4321"
	var lastCode int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/items/search/amoxicilina", nil)
		req.RemoteAddr = clientIP
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after exhausting the bucket, got %d", lastCode)
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	logging.InitLogger("")

	cfg := &config.Config{MaxRequestBody: 1024, MaxHeaderSize: 1024}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("normal request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dispense", strings.NewReader(`{"sku":"AMX-500"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dispense", strings.NewReader("x"))
		req.Header.Set("Content-Length", "999999")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", rec.Code)
		}
	})

	t.Run("oversized headers rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("X-Padding", strings.Repeat("a", 2048))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("Expected 431, got %d", rec.Code)
		}
	})
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "203.0.113.9" {
		t.Errorf("Expected first forwarded IP, got %s", seen)
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	logging.InitLogger("")

	handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("proxied request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("localhost passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "127.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("direct external access blocked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = "203.0.113.50:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rec.Code)
		}
	})
}
