package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoaudit/logging"
)

// saveEvery is how many tracked requests pass between statistics saves.
const saveEvery = 100

// Context keys handlers use to report what they audited.
const (
	// AnalyzedURLsKey holds the []string of site URLs a request audited.
	AnalyzedURLsKey = "analyzed_urls"
	// ComparisonKey is set to true by the comparison handler.
	ComparisonKey = "comparison"
)

// Stats records visitors and audit requests in stats. Handlers list the
// audited URLs under AnalyzedURLsKey. Requests without it are only counted
// as visits.
func Stats(stats *logging.Statistics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		v, ok := c.Get(AnalyzedURLsKey)
		if !ok {
			return
		}
		urls, _ := v.([]string)
		loadTime := float64(time.Since(start).Milliseconds())
		failed := c.Writer.Status() >= 400

		if c.GetBool(ComparisonKey) {
			stats.TrackComparison(urls, loadTime, failed)
		} else {
			for _, u := range urls {
				stats.TrackAnalysis(u, loadTime, failed)
			}
		}

		if stats.Total()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("failed to save statistics", "error", err)
				}
			}()
		}
	}
}
