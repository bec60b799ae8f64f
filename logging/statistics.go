package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// StatisticsFile is the file name used inside the data directory.
const StatisticsFile = "statistics.json"

// visitorWindow is how long a visitor counts as unique.
const visitorWindow = 24 * time.Hour

// URLCount is one entry of the popular-sites list.
type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Statistics collects API usage counters and persists them as JSON.
type Statistics struct {
	UniqueVisitors     map[string]time.Time `json:"uniqueVisitors"`     // IP -> last visit
	AnalysisRequests   int                  `json:"analysisRequests"`   // single-site audits
	ComparisonRequests int                  `json:"comparisonRequests"` // batch comparisons
	ErrorCount         int                  `json:"errorCount"`
	PopularURLs        map[string]int       `json:"popularUrls"`
	AverageLoadTime    float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime      float64              `json:"totalLoadTime"`
	RequestCount       int                  `json:"requestCount"`
	LastPersisted      time.Time            `json:"lastPersisted"`

	mutex   sync.RWMutex
	path    string
	devMode bool
	now     func() time.Time
}

// NewStatistics returns statistics persisted at path. The previous state is
// loaded when the file exists. devMode exposes the popular-sites list in
// Snapshot.
func NewStatistics(path string, devMode bool) *Statistics {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		path:           path,
		devMode:        devMode,
		now:            time.Now,
	}

	if err := s.Load(); err != nil {
		slog.Warn("could not load existing statistics", "path", path, "error", err)
	}
	return s
}

// TrackVisitor records a visit from ip.
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// cleanURL reduces a URL to scheme, host and path. Local hosts and API paths
// return "".
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}
	return strings.TrimSuffix(cleaned, "/")
}

// TrackAnalysis records one audit of siteURL taking loadTime milliseconds.
func (s *Statistics) TrackAnalysis(siteURL string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	s.trackURL(siteURL)
	s.trackLoad(loadTime, hasError)
}

// TrackComparison records one batch comparison of siteURLs.
func (s *Statistics) TrackComparison(siteURLs []string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ComparisonRequests++
	for _, u := range siteURLs {
		s.trackURL(u)
	}
	s.trackLoad(loadTime, hasError)
}

func (s *Statistics) trackURL(siteURL string) {
	if cleaned := cleanURL(siteURL); cleaned != "" {
		s.PopularURLs[cleaned]++
	}
}

func (s *Statistics) trackLoad(loadTime float64, hasError bool) {
	if hasError {
		s.ErrorCount++
	}
	s.TotalLoadTime += loadTime
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

// UniqueVisitorsCount returns the number of visitors seen in the last 24 hours.
func (s *Statistics) UniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors()
}

func (s *Statistics) uniqueVisitors() int {
	cutoff := s.now().Add(-visitorWindow)
	count := 0
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// TopURLs returns the n most requested sites, most requested first and
// alphabetical among equals.
func (s *Statistics) TopURLs(n int) []URLCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.topURLs(n)
}

func (s *Statistics) topURLs(n int) []URLCount {
	out := make([]URLCount, 0, len(s.PopularURLs))
	for u, c := range s.PopularURLs {
		out = append(out, URLCount{URL: u, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URL < out[j].URL
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ErrorRate returns failed requests as a percentage of all tracked requests.
func (s *Statistics) ErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

func (s *Statistics) errorRate() float64 {
	if s.RequestCount == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.RequestCount) * 100
}

// Total returns the number of tracked requests.
func (s *Statistics) Total() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RequestCount
}

// Snapshot returns the public view of the statistics. The popular-sites list
// is only included in dev mode.
func (s *Statistics) Snapshot() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	view := map[string]any{
		"uniqueVisitors24h":  s.uniqueVisitors(),
		"totalRequests":      s.RequestCount,
		"analysisRequests":   s.AnalysisRequests,
		"comparisonRequests": s.ComparisonRequests,
		"errorRate":          s.errorRate(),
		"averageLoadTime":    s.AverageLoadTime,
	}
	if s.devMode {
		view["popularUrls"] = s.topURLs(5)
	}
	return view
}

// Save persists the statistics, replacing the file atomically.
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = s.now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not replace statistics file: %w", err)
	}
	return nil
}

// Load reads the statistics from disk. A missing file is not an error.
func (s *Statistics) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularURLs == nil {
		s.PopularURLs = make(map[string]int)
	}
	return nil
}
