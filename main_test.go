package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/seo-optimizer/seoaudit/config"
	"github.com/seo-optimizer/seoaudit/history"
	"github.com/seo-optimizer/seoaudit/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Port = "0"
	cfg.DataDir = t.TempDir()
	return cfg
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", filepath.Base(path), err)
	}
}

func TestRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("StopsOnCancel", func(t *testing.T) {
		cfg := testConfig(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := run(ctx, cfg, logger); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		requireFile(t, filepath.Join(cfg.DataDir, history.FileName))
		requireFile(t, filepath.Join(cfg.DataDir, "stats.json"))
		requireFile(t, filepath.Join(cfg.DataDir, logging.StatisticsFile))
	})

	t.Run("HistoryUnavailable", func(t *testing.T) {
		cfg := testConfig(t)
		blocker := filepath.Join(cfg.DataDir, "blocker")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatal(err)
		}
		cfg.DataDir = filepath.Join(blocker, "data")

		err := run(context.Background(), cfg, logger)
		if err == nil || !strings.Contains(err.Error(), "history") {
			t.Fatalf("expected a history error, got %v", err)
		}
	})

	t.Run("FlushesAfterListenFailure", func(t *testing.T) {
		busy, err := net.Listen("tcp", ":0")
		if err != nil {
			t.Fatal(err)
		}
		defer busy.Close()

		cfg := testConfig(t)
		cfg.Port = strconv.Itoa(busy.Addr().(*net.TCPAddr).Port)

		if err := run(context.Background(), cfg, logger); err == nil {
			t.Fatal("expected an error for a port in use")
		}
		requireFile(t, filepath.Join(cfg.DataDir, "stats.json"))
		requireFile(t, filepath.Join(cfg.DataDir, logging.StatisticsFile))
	})
}
