package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		words := strings.Repeat("autokool sõidutund ", 350)
		if r.URL.Path == "/short" {
			words = "autokool"
		}
		fmt.Fprintf(w, `<html><head><title>Driving school %s</title></head>
<body><h1>Autokool</h1><p>%s</p></body></html>`, r.URL.Path, words)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Use != "seoaudit" {
		t.Errorf("Use = %q", cmd.Use)
	}

	want := map[string]bool{"analyze": false, "compare": false, "history": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"verbose", "data-dir", "config"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "seoaudit version") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAnalyzeRequiresURLs(t *testing.T) {
	if _, err := runCmd(t, "analyze", "--data-dir", t.TempDir()); err == nil {
		t.Error("expected an error without URLs")
	}
}

func TestAnalyzeCompareHistory(t *testing.T) {
	site := newTestSite(t)
	dataDir := t.TempDir()
	reportDir := filepath.Join(t.TempDir(), "reports")

	out, err := runCmd(t, "analyze", "--data-dir", dataDir, "-o", reportDir,
		site.URL+"/long", site.URL+"/short", site.URL+"/missing")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if strings.Count(out, "/10") != 2 {
		t.Errorf("expected two score lines, got %q", out)
	}

	reports, _ := filepath.Glob(filepath.Join(reportDir, "*_report.json"))
	markdown, _ := filepath.Glob(filepath.Join(reportDir, "*_report.md"))
	// both pages share a host and therefore a report file
	if len(reports) != 1 || len(markdown) != 1 {
		t.Errorf("reports = %v, markdown = %v", reports, markdown)
	}

	out, err = runCmd(t, "compare", "--data-dir", dataDir, "--json", reportDir)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, "Winner:") {
		t.Errorf("compare output %q", out)
	}
	for _, name := range []string{comparisonMarkdown, comparisonJSON} {
		if _, err := os.Stat(filepath.Join(reportDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	out, err = runCmd(t, "history", "--data-dir", dataDir, site.URL+"/long")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 0 || !strings.Contains(out, "words=") || strings.Contains(out, "words=0") {
		t.Errorf("history output %q", out)
	}

	out, err = runCmd(t, "history", "--data-dir", dataDir, site.URL+"/never")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No audits recorded") {
		t.Errorf("history output %q", out)
	}
}

func TestCompareEmptyDir(t *testing.T) {
	_, err := runCmd(t, "compare", "--data-dir", t.TempDir(), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no reports found") {
		t.Errorf("expected a no-reports error, got %v", err)
	}
}
