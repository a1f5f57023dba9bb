package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transportHTTP "github.com/opentrusty/autoop/internal/transport/http"
)

func newRouter(t *testing.T, ready transportHTTP.ReadyChecker, rps float64, burst int) http.Handler {
	t.Helper()
	rl := transportHTTP.NewRateLimiter(rps, burst)
	t.Cleanup(rl.Stop)
	h := transportHTTP.NewHandler("autoop", "0.1.0", ready)
	return transportHTTP.NewRouter(h, rl, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

// TestPurpose: Validates that only the probe endpoints are routed.
// Scope: Unit Test
// Expected: GET /health and GET /ready exist; anything else does not.
// Test Case ID: HTTP-01
func TestRouterRoutes(t *testing.T) {
	rl := transportHTTP.NewRateLimiter(100, 100)
	defer rl.Stop()
	r := transportHTTP.NewRouter(transportHTTP.NewHandler("autoop", "0.1.0", nil), rl, nil)

	tests := []struct {
		method      string
		path        string
		expectFound bool
	}{
		{"GET", "/health", true},
		{"GET", "/ready", true},
		{"POST", "/health", false},
		{"GET", "/api/v1/tenants", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			assert.Equal(t, tt.expectFound, r.Match(rctx, tt.method, tt.path))
		})
	}
}

// TestPurpose: Validates that the API annotations on the health handlers describe routes the router serves.
// Scope: Unit Test
// Expected: Every @Router annotation in handlers.go matches a registered route, and both health endpoints are annotated.
// Test Case ID: HTTP-03
func TestRouteAnnotations(t *testing.T) {
	src, err := os.ReadFile("handlers.go")
	require.NoError(t, err)

	rl := transportHTTP.NewRateLimiter(100, 100)
	defer rl.Stop()
	r := transportHTTP.NewRouter(transportHTTP.NewHandler("autoop", "0.1.0", nil), rl, nil)

	annotated := regexp.MustCompile(`// @Router (\S+) \[(\w+)\]`).FindAllStringSubmatch(string(src), -1)
	var routes []string
	for _, m := range annotated {
		method := strings.ToUpper(m[2])
		routes = append(routes, method+" "+m[1])
		assert.True(t, r.Match(chi.NewRouteContext(), method, m[1]), "annotated route %s %s is not registered", method, m[1])
	}
	assert.ElementsMatch(t, []string{"GET /health", "GET /ready"}, routes)
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(t, nil, 100, 100)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "autoop", body["service"])
}

// TestPurpose: Validates that readiness follows the gateway connection state.
// Scope: Unit Test
// Expected: 503 before the gateway is ready, 200 afterwards.
// Test Case ID: HTTP-02
func TestReadyCheck(t *testing.T) {
	var ready atomic.Bool
	r := newRouter(t, transportHTTP.ReadyFunc(ready.Load), 100, 100)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready.Store(true)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReadyCheck_NoChecker(t *testing.T) {
	r := newRouter(t, nil, 100, 100)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	r := newRouter(t, nil, 0.001, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Other clients have their own limiter
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
