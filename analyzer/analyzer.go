package analyzer

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/seo-optimizer/seoaudit/keywords"
	"github.com/seo-optimizer/seoaudit/stats"
)

var (
	// ErrEmptyPage is returned when a fetch succeeds but yields no body.
	ErrEmptyPage = errors.New("empty page body")

	// ErrFetchStatus is returned for HTTP responses with status >= 400.
	ErrFetchStatus = errors.New("unexpected HTTP status")
)

// DefaultUserAgent mimics a desktop browser so sites serve their real markup.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const maxBodySize = 10 * 1024 * 1024

// statsRetainMonths is how many months of fetch counters New keeps.
const statsRetainMonths = 12

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Options configures an Analyzer.
type Options struct {
	DataDir           string
	UserAgent         string
	Timeout           time.Duration
	CacheTTL          time.Duration
	MaxCacheSize      int
	Concurrency       int
	RequestsPerSecond float64
	TopKeywords       int
	Logger            *slog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:           dataDir,
		UserAgent:         DefaultUserAgent,
		Timeout:           10 * time.Second,
		CacheTTL:          30 * time.Minute,
		MaxCacheSize:      1000,
		Concurrency:       4,
		RequestsPerSecond: 2,
		TopKeywords:       keywords.DefaultTopN,
	}
}

type cacheEntry struct {
	audit     *Audit
	timestamp time.Time
}

// CacheStats describes the page cache.
type CacheStats struct {
	Entries  int           `json:"entries"`
	Hits     int           `json:"hits"`
	Misses   int           `json:"misses"`
	Analyzed int           `json:"pagesAnalyzed"`
	Failures int           `json:"fetchFailures"`
	TTL      time.Duration `json:"ttl"`
}

// FetchFailure records a URL that produced no audit.
type FetchFailure struct {
	URL string `json:"url"`
	Err error  `json:"-"`
}

// Error implements error.
func (f FetchFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.URL, f.Err)
}

// Analyzer fetches pages and turns them into scored audits.
type Analyzer struct {
	client          *http.Client
	userAgent       string
	limiter         *rate.Limiter
	concurrency     int
	topN            int
	cache           map[string]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	stats           *stats.Storage
	logger          *slog.Logger
}

// New creates an Analyzer whose fetch counters live under opts.DataDir.
func New(opts Options) (*Analyzer, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	statsStorage, err := stats.NewStorage(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	statsStorage.Cleanup(statsRetainMonths)

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.TopKeywords < 1 {
		opts.TopKeywords = keywords.DefaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Analyzer{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:       opts.UserAgent,
		limiter:         rate.NewLimiter(limit, opts.Concurrency),
		concurrency:     opts.Concurrency,
		topN:            opts.TopKeywords,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        opts.CacheTTL,
		maxCacheSize:    opts.MaxCacheSize,
		lastCleanup:     time.Now(),
		cleanupInterval: 5 * time.Minute,
		stats:           statsStorage,
		logger:          opts.Logger,
	}, nil
}

// cleanup removes expired entries and trims the cache to its size limit,
// oldest first.
func (a *Analyzer) cleanup() {
	now := time.Now()

	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()

	for key, entry := range a.cache {
		if now.Sub(entry.timestamp) > a.cacheTTL {
			delete(a.cache, key)
		}
	}

	if a.maxCacheSize > 0 && len(a.cache) > a.maxCacheSize {
		type keyed struct {
			key       string
			timestamp time.Time
		}
		entries := make([]keyed, 0, len(a.cache))
		for key, entry := range a.cache {
			entries = append(entries, keyed{key, entry.timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})
		for i := 0; i < len(entries)-a.maxCacheSize; i++ {
			delete(a.cache, entries[i].key)
		}
	}

	a.lastCleanup = now
}

// SetCacheTTL sets the cache TTL. A zero TTL disables caching.
func (a *Analyzer) SetCacheTTL(ttl time.Duration) {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cacheTTL = ttl
}

// ClearCache drops every cached audit.
func (a *Analyzer) ClearCache() {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cache = make(map[string]cacheEntry)
}

func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

// IsCached reports whether url has a fresh cached audit.
func (a *Analyzer) IsCached(url string) bool {
	a.cacheMutex.RLock()
	defer a.cacheMutex.RUnlock()

	entry, found := a.cache[generateCacheKey(url)]
	return found && time.Since(entry.timestamp) < a.cacheTTL
}

// GetCacheStats returns cache size and this month's fetch counters.
func (a *Analyzer) GetCacheStats() CacheStats {
	current := a.stats.GetCurrentStats()

	a.cacheMutex.RLock()
	defer a.cacheMutex.RUnlock()

	return CacheStats{
		Entries:  len(a.cache),
		Hits:     current.PageCacheHits,
		Misses:   current.PageCacheMisses,
		Analyzed: current.PagesAnalyzed,
		Failures: current.FetchFailures,
		TTL:      a.cacheTTL,
	}
}

// MonthlyStats returns the stored fetch counters keyed by "YYYY-MM".
func (a *Analyzer) MonthlyStats() map[string]stats.MonthlyStats {
	months := a.stats.GetAllMonths()
	out := make(map[string]stats.MonthlyStats, len(months))
	for _, m := range months {
		if ms, ok := a.stats.GetMonthlyStats(m); ok {
			out[m] = ms
		}
	}
	return out
}

// Analyze fetches url, extracts its features and scores them. Fresh results
// are served from the cache.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*Audit, error) {
	a.cacheMutex.RLock()
	needsCleanup := time.Since(a.lastCleanup) > a.cleanupInterval
	a.cacheMutex.RUnlock()
	if needsCleanup {
		go a.cleanup()
	}

	cacheKey := generateCacheKey(url)
	a.cacheMutex.RLock()
	entry, found := a.cache[cacheKey]
	ttl := a.cacheTTL
	a.cacheMutex.RUnlock()
	if found && time.Since(entry.timestamp) < ttl {
		a.stats.RecordCacheHit()
		return entry.audit, nil
	}
	a.stats.RecordCacheMiss()

	audit, err := a.analyzeUncached(ctx, url)
	a.stats.RecordFetch(err != nil)
	if err != nil {
		return nil, err
	}

	if ttl > 0 {
		a.cacheMutex.Lock()
		a.cache[cacheKey] = cacheEntry{audit: audit, timestamp: time.Now()}
		a.cacheMutex.Unlock()
	}

	return audit, nil
}

func (a *Analyzer) analyzeUncached(ctx context.Context, url string) (*Audit, error) {
	start := time.Now()

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	contentType, err := a.fetch(ctx, url, buf)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	doc, err := ParseHTML(bytes.NewReader(buf.Bytes()), contentType)
	if err != nil {
		return nil, err
	}

	features := Assemble(ExtractFacts(doc, url), a.topN)
	breakdown := Score(features)

	a.logger.Debug("page analyzed",
		"url", url,
		"score", breakdown.Total,
		"words", features.WordCount,
		"elapsed", loadTime,
	)

	return &Audit{
		Features:        features,
		Score:           breakdown,
		Recommendations: Recommendations(features, breakdown),
		FetchedAt:       start,
		LoadTime:        loadTime.Milliseconds(),
	}, nil
}

// fetch reads the body of url into buf and returns its Content-Type.
func (a *Analyzer) fetch(ctx context.Context, url string, buf *bytes.Buffer) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: %d for %s", ErrFetchStatus, resp.StatusCode, url)
	}

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxBodySize)); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyPage, url)
	}

	return resp.Header.Get("Content-Type"), nil
}

// AnalyzeAll analyzes urls concurrently. Audits are returned in the order of
// urls; URLs that could not be analyzed are left out and reported as
// failures. The error is non-nil only when ctx was cancelled.
func (a *Analyzer) AnalyzeAll(ctx context.Context, urls []string) ([]*Audit, []FetchFailure, error) {
	results := make([]*Audit, len(urls))
	errs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}

			audit, err := a.Analyze(gctx, url)
			if err != nil {
				a.logger.Warn("analysis failed", "url", url, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = audit
			return nil
		})
	}
	_ = g.Wait()

	audits := make([]*Audit, 0, len(urls))
	var failures []FetchFailure
	for i, audit := range results {
		if audit != nil {
			audits = append(audits, audit)
			continue
		}
		failures = append(failures, FetchFailure{URL: urls[i], Err: errs[i]})
	}

	return audits, failures, ctx.Err()
}

// Shutdown persists the fetch counters and drops the cache.
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}

	if a.stats != nil {
		if err := a.stats.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown stats storage: %w", err)
		}
	}

	a.ClearCache()
	return nil
}
