package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/variantsync/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("api_key")) })
	return r
}

func get(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_HeaderStyles(t *testing.T) {
	r := newEngine(Auth([]string{"k1", ""}))

	tests := []struct {
		name, header, value string
		want                int
	}{
		{"x-api-key", "X-API-Key", "k1", http.StatusOK},
		{"bearer", "Authorization", "Bearer k1", http.StatusOK},
		{"basic scheme", "Authorization", "Basic k1", http.StatusUnauthorized},
		{"empty key not accepted", "X-API-Key", "", http.StatusUnauthorized},
		{"unknown", "X-API-Key", "k2", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header, tt.value)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != "k1" {
				t.Errorf("api_key in context = %q, want k1", w.Body.String())
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	if w := get(newEngine(Auth(nil)), "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRateLimit_PerIdentity(t *testing.T) {
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))

	if w := get(r, "X-API-Key", "a"); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	if w := get(r, "X-API-Key", "a"); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
	if w := get(r, "X-API-Key", "b"); w.Code != http.StatusOK {
		t.Errorf("other identity status = %d, want 200", w.Code)
	}
}

func TestLimiterSet_Evict(t *testing.T) {
	s := &limiterSet{limiters: make(map[string]*limiterEntry), rps: 1, burst: 1}
	now := time.Now()
	s.get("old", now.Add(-2*time.Hour))
	s.get("new", now)

	s.evict(now.Add(-time.Hour))
	if _, ok := s.limiters["old"]; ok {
		t.Error("stale limiter not evicted")
	}
	if _, ok := s.limiters["new"]; !ok {
		t.Error("fresh limiter evicted")
	}
}
