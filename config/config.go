// Package config loads runtime settings from the environment and .env files.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/keywords"
)

// AppName names the per-user data directory.
const AppName = "seoaudit"

// Config holds the server and CLI settings.
type Config struct {
	Port             string
	GinMode          string
	DataDir          string
	ReportDir        string
	FetchTimeout     time.Duration
	FetchConcurrency int
	FetchRate        float64
	CacheTTL         time.Duration
	TopKeywords      int
	UserAgent        string
	DevMode          bool
	RateLimit        float64
	RateBurst        int
}

// loadEnv reads .env.development when present and .env otherwise. Variables
// already set in the environment win.
func loadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using environment variables")
		}
	}
}

// Load reads the .env files and the environment.
func Load() *Config {
	loadEnv()
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() *Config {
	return &Config{
		Port:             getEnv("PORT", "8082"),
		GinMode:          getEnv("GIN_MODE", "release"),
		DataDir:          getEnv("DATA_DIR", DefaultDataDir()),
		ReportDir:        getEnv("REPORT_DIR", "."),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		FetchRate:        getEnvFloat("FETCH_RATE", 2),
		CacheTTL:         getEnvDuration("CACHE_TTL", 30*time.Minute),
		TopKeywords:      getEnvInt("TOP_KEYWORDS", keywords.DefaultTopN),
		UserAgent:        getEnv("USER_AGENT", analyzer.DefaultUserAgent),
		DevMode:          getEnvBool("DEV_MODE", false),
		RateLimit:        getEnvFloat("RATE_LIMIT", 2),
		RateBurst:        getEnvInt("RATE_BURST", 5),
	}
}

// DefaultDataDir returns the XDG data directory of the application.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// AnalyzerOptions maps the fetch settings onto analyzer options.
func (c *Config) AnalyzerOptions(logger *slog.Logger) analyzer.Options {
	opts := analyzer.DefaultOptions(c.DataDir)
	opts.UserAgent = c.UserAgent
	opts.Timeout = c.FetchTimeout
	opts.CacheTTL = c.CacheTTL
	opts.Concurrency = c.FetchConcurrency
	opts.RequestsPerSecond = c.FetchRate
	opts.TopKeywords = c.TopKeywords
	opts.Logger = logger
	return opts
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer setting, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		slog.Warn("invalid number setting, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration setting, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
