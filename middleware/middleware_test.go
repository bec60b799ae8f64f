package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoaudit/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	router := gin.New()
	router.Use(rl.RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("burst exceeded: status %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client: status %d, want 200", code)
	}

	fixed = fixed.Add(time.Second)
	if code := do("10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill: status %d, want 200", code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	if rl.Clients() != 2 {
		t.Fatalf("clients = %d, want 2", rl.Clients())
	}

	now = now.Add(2 * time.Hour)
	rl.limiter("10.0.0.3")
	if rl.Clients() != 1 {
		t.Errorf("clients after sweep = %d, want 1", rl.Clients())
	}
}

func TestErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	router := gin.New()
	router.Use(ErrorHandler(slog.New(slog.NewTextHandler(&logs, nil))))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "An unexpected error occurred") {
		t.Errorf("body = %s", w.Body.String())
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestStats(t *testing.T) {
	stats := logging.NewStatistics(filepath.Join(t.TempDir(), logging.StatisticsFile), true)

	router := gin.New()
	router.Use(Stats(stats, discardLogger()))
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/analyze", func(c *gin.Context) {
		c.Set(AnalyzedURLsKey, []string{"https://a.ee"})
		c.Status(http.StatusBadGateway)
	})
	router.POST("/api/compare", func(c *gin.Context) {
		c.Set(AnalyzedURLsKey, []string{"https://a.ee", "https://b.ee"})
		c.Set(ComparisonKey, true)
		c.Status(http.StatusOK)
	})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/health"},
		{http.MethodPost, "/api/analyze"},
		{http.MethodPost, "/api/compare"},
	} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(r.method, r.path, nil))
	}

	if stats.UniqueVisitorsCount() != 1 {
		t.Errorf("unique visitors = %d, want 1", stats.UniqueVisitorsCount())
	}
	if stats.AnalysisRequests != 1 || stats.ComparisonRequests != 1 {
		t.Errorf("requests = %d/%d, want 1/1", stats.AnalysisRequests, stats.ComparisonRequests)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("errors = %d, want 1", stats.ErrorCount)
	}
	if got := stats.TopURLs(1); len(got) != 1 || got[0].URL != "https://a.ee" || got[0].Count != 2 {
		t.Errorf("TopURLs = %+v", got)
	}
}
