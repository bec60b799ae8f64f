// Package report persists per-site audit records and renders site and
// comparative reports as JSON and Markdown.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/compare"
)

// FileSuffix ends the name of every persisted site report.
const FileSuffix = "_report.json"

// Timestamp is the analysis date of a site report. It is written as RFC 3339
// and also reads ISO 8601 timestamps without a zone, which older report
// files carry. Nothing downstream depends on the date, so a value in any
// other form is read as the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MarshalJSON writes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

// UnmarshalJSON accepts any of the supported layouts. Null, an empty string
// and unrecognized values leave the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("ignoring analysis date", "value", string(data), "error", err)
		return nil
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	slog.Warn("ignoring unrecognized analysis date", "value", s)
	return nil
}

// SiteReport is the persisted record of one site audit.
type SiteReport struct {
	AnalysisDate Timestamp             `json:"analysis_date"`
	SiteURL      string                `json:"site_url"`
	SEOData      analyzer.PageFeatures `json:"seo_data"`
}

// NewSiteReport wraps features analyzed at date.
func NewSiteReport(f analyzer.PageFeatures, date time.Time) *SiteReport {
	return &SiteReport{
		AnalysisDate: Timestamp{date},
		SiteURL:      f.URL,
		SEOData:      f,
	}
}

// Record converts the report into comparison input.
func (r *SiteReport) Record() compare.Record {
	return compare.Record{SiteURL: r.SiteURL, Features: r.SEOData}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a file-name stem from a site URL: the host without "www."
// and without its top-level domain, lowercased, with every other run of
// non-alphanumerics replaced by "_".
func Slug(siteURL string) string {
	host := strings.ToLower(compare.HostLabel(siteURL))
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	slug := strings.Trim(slugUnsafe.ReplaceAllString(host, "_"), "_")
	if slug == "" {
		return "site"
	}
	return slug
}

// FileName returns the report file name for slug.
func FileName(slug string) string {
	return slug + FileSuffix
}

// WriteJSON writes r as indented JSON followed by a newline.
func WriteJSON(w io.Writer, r *SiteReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes r to dir as <slug>_report.json and returns the path.
func Save(dir string, r *SiteReport) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, FileName(Slug(r.SiteURL)))
	var buf bytes.Buffer
	if err := WriteJSON(&buf, r); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Decode reads one site report. Absent fields keep their zero values and
// absent lists become empty. The site URL and the page URL fill in for each
// other when one of them is missing.
func Decode(r io.Reader) (*SiteReport, error) {
	var sr SiteReport
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, err
	}
	if sr.SEOData.H1Tags == nil {
		sr.SEOData.H1Tags = []string{}
	}
	if sr.SEOData.H2Tags == nil {
		sr.SEOData.H2Tags = []string{}
	}
	if sr.SEOData.Keywords == nil {
		sr.SEOData.Keywords = []string{}
	}
	if sr.SiteURL == "" {
		sr.SiteURL = sr.SEOData.URL
	}
	if sr.SEOData.URL == "" {
		sr.SEOData.URL = sr.SiteURL
	}
	return &sr, nil
}

// LoadFile decodes the site report stored at path.
func LoadFile(path string) (*SiteReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sr, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return sr, nil
}

// LoadDir reads every *_report.json file in dir in lexical file-name order.
// Files that cannot be read or decoded are skipped with a warning.
func LoadDir(dir string) ([]compare.Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	sort.Strings(paths)

	records := make([]compare.Record, 0, len(paths))
	for _, path := range paths {
		sr, err := LoadFile(path)
		if err != nil {
			slog.Warn("skipping report", "file", path, "error", err)
			continue
		}
		records = append(records, sr.Record())
	}
	return records, nil
}
