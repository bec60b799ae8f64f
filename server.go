package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/compare"
	"github.com/seo-optimizer/seoaudit/history"
	"github.com/seo-optimizer/seoaudit/logging"
	"github.com/seo-optimizer/seoaudit/middleware"
)

// maxCompareURLs bounds one comparison request.
const maxCompareURLs = 20

type server struct {
	analyzer *analyzer.Analyzer
	namer    *compare.Namer
	history  *history.Store
	stats    *logging.Statistics
	logger   *slog.Logger
	devMode  bool
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type analyzeResponse struct {
	SiteName string `json:"siteName"`
	*analyzer.Audit
}

type compareRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,dive,url"`
}

type compareResponse struct {
	*compare.Report
	Failed []string `json:"failed"`
}

func (s *server) routes(rl *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(rl.RateLimit())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(middleware.Stats(s.stats, s.logger))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/analyze", s.analyzeURL)
		api.POST("/compare", s.compareURLs)
		api.GET("/statistics", s.statistics)
	}

	return r
}

func (s *server) analyzeURL(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}
	c.Set(middleware.AnalyzedURLsKey, []string{req.URL})

	audit, err := s.analyzer.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		s.logger.Warn("analysis failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze URL: " + err.Error()})
		return
	}

	name := s.namer.Name(req.URL)
	s.record(c.Request.Context(), name, audit)

	c.JSON(http.StatusOK, analyzeResponse{SiteName: name, Audit: audit})
}

func (s *server) compareURLs(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) > maxCompareURLs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide between 1 and 20 valid URLs"})
		return
	}
	c.Set(middleware.AnalyzedURLsKey, req.URLs)
	c.Set(middleware.ComparisonKey, true)

	ctx := c.Request.Context()
	audits, failures, err := s.analyzer.AnalyzeAll(ctx, req.URLs)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Comparison cancelled"})
		return
	}

	failed := make([]string, len(failures))
	for i, f := range failures {
		failed[i] = f.URL
	}

	records := make([]compare.Record, len(audits))
	for i, a := range audits {
		records[i] = compare.Record{SiteURL: a.Features.URL, Features: a.Features}
		s.record(ctx, s.namer.Name(a.Features.URL), a)
	}

	rep, err := compare.NewEngine(s.namer).Build(records)
	if errors.Is(err, compare.ErrEmptyBatch) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "None of the URLs could be analyzed",
			"failed": failed,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, compareResponse{Report: rep, Failed: failed})
}

func (s *server) statistics(c *gin.Context) {
	view := s.stats.Snapshot()
	view["cache"] = s.analyzer.GetCacheStats()
	if s.devMode {
		view["monthly"] = s.analyzer.MonthlyStats()
	}
	c.JSON(http.StatusOK, view)
}

// record appends the audit to the history. Failures are logged only.
func (s *server) record(ctx context.Context, name string, audit *analyzer.Audit) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Save(ctx, name, audit.Features, audit.Score.Total); err != nil {
		s.logger.Warn("failed to record history", "url", audit.Features.URL, "error", err)
	}
}
