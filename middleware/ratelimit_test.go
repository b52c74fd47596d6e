package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/service"
)

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

func newTestRouter(limiter service.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", RateLimit(limiter), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestRateLimitRejects(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.7:1234"
	newTestRouter(limiter).ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "10.0.0.7" {
		t.Errorf("expected limiter keyed by client ip, got %v", limiter.keys)
	}
}

func TestRateLimitAllows(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	newTestRouter(&stubLimiter{allow: true}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestRateLimitWithLocalLimiter(t *testing.T) {
	limiter := service.NewLocalLimiter(&config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2})
	r := newTestRouter(limiter)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.168.1.10:5555"
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: expected %d, got %d (all: %v)", i, want[i], codes[i], codes)
		}
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	newTestRouter(&stubLimiter{allow: true}).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "abc123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard origin")
	}
}
