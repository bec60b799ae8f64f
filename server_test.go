package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/compare"
	"github.com/seo-optimizer/seoaudit/history"
	"github.com/seo-optimizer/seoaudit/logging"
	"github.com/seo-optimizer/seoaudit/middleware"
)

func newTestServer(t *testing.T) (*gin.Engine, *server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := analyzer.DefaultOptions(dir)
	opts.RequestsPerSecond = 0
	opts.Logger = logger
	a, err := analyzer.New(opts)
	if err != nil {
		t.Fatalf("analyzer.New failed: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })

	store, err := history.Open(dir)
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := &server{
		analyzer: a,
		namer:    compare.NewNamer(),
		history:  store,
		stats:    logging.NewStatistics(filepath.Join(dir, logging.StatisticsFile), false),
		logger:   logger,
	}
	return srv.routes(middleware.NewRateLimiter(1000, 1000)), srv
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>Driving school %s</title></head>
<body><h1>Autokool</h1><p>autokool tallinn autokool</p></body></html>`, r.URL.Path)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	router, srv := newTestServer(t)
	site := newTestSite(t)

	t.Run("OK", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/analyze", map[string]string{"url": site.URL + "/home"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}

		var resp struct {
			SiteName string                  `json:"siteName"`
			Features analyzer.PageFeatures   `json:"features"`
			Score    analyzer.ScoreBreakdown `json:"score"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad JSON: %v", err)
		}
		if resp.Features.Title != "Driving school /home" {
			t.Errorf("title = %q", resp.Features.Title)
		}
		if resp.Score.Max != analyzer.MaxScore || resp.Score.Total != analyzer.Score(resp.Features).Total {
			t.Errorf("score = %+v", resp.Score)
		}
		if resp.SiteName == "" {
			t.Error("missing site name")
		}

		entries, err := srv.history.List(context.Background(), site.URL+"/home", 0)
		if err != nil || len(entries) != 1 {
			t.Errorf("history entries = %d, err %v", len(entries), err)
		}
	})

	t.Run("InvalidURL", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/analyze", map[string]string{"url": "not a url"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("FetchFailure", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/analyze", map[string]string{"url": site.URL + "/missing"})
		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", w.Code)
		}
	})
}

func TestCompareEndpoint(t *testing.T) {
	router, srv := newTestServer(t)
	site := newTestSite(t)

	t.Run("PartialFailure", func(t *testing.T) {
		urls := []string{site.URL + "/a", site.URL + "/missing", site.URL + "/b"}
		w := doJSON(router, http.MethodPost, "/api/compare", map[string][]string{"urls": urls})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}

		var resp struct {
			Entries        []compare.Entry `json:"entries"`
			CommonKeywords []string        `json:"common_keywords"`
			Failed         []string        `json:"failed"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad JSON: %v", err)
		}
		if len(resp.Entries) != 2 {
			t.Errorf("entries = %d, want 2", len(resp.Entries))
		}
		if len(resp.Failed) != 1 || resp.Failed[0] != site.URL+"/missing" {
			t.Errorf("failed = %q", resp.Failed)
		}
		if len(resp.CommonKeywords) == 0 || resp.CommonKeywords[0] != "autokool" {
			t.Errorf("common keywords = %q", resp.CommonKeywords)
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/compare", map[string][]string{"urls": {site.URL + "/missing"}})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("NoURLs", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/compare", map[string][]string{"urls": {}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	if srv.stats.ComparisonRequests != 2 {
		t.Errorf("comparison requests = %d, want 2", srv.stats.ComparisonRequests)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	doJSON(router, http.MethodGet, "/api/health", nil)
	w := doJSON(router, http.MethodGet, "/api/statistics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body["uniqueVisitors24h"] != float64(1) {
		t.Errorf("unique visitors = %v", body["uniqueVisitors24h"])
	}
	if _, ok := body["popularUrls"]; ok {
		t.Error("popular URLs must be hidden outside dev mode")
	}
	if _, ok := body["monthly"]; ok {
		t.Error("monthly counters must be hidden outside dev mode")
	}
	if _, ok := body["cache"]; !ok {
		t.Error("missing cache statistics")
	}
}
