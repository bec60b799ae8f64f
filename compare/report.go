// Package compare ranks several scored sites against each other and derives
// the comparative report aggregates.
package compare

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/keywords"
)

// ErrEmptyBatch is returned when a report is requested for zero sites.
var ErrEmptyBatch = errors.New("compare: no sites to compare")

// Record is one site's page features keyed by the site URL.
type Record struct {
	SiteURL  string
	Features analyzer.PageFeatures
}

// Entry is one ranked site.
type Entry struct {
	SiteName      string                  `json:"site_name"`
	URL           string                  `json:"url"`
	Features      analyzer.PageFeatures   `json:"features"`
	Score         int                     `json:"score"`
	Breakdown     analyzer.ScoreBreakdown `json:"breakdown"`
	AltPercentage float64                 `json:"alt_percentage"`
}

// Report is the ranked comparison of a batch of sites.
type Report struct {
	GeneratedAt          time.Time `json:"generated_at"`
	Entries              []Entry   `json:"entries"`
	AverageScore         float64   `json:"average_score"`
	AverageWordCount     float64   `json:"avg_word_count"`
	AverageInternalLinks float64   `json:"avg_internal_links"`
	CommonKeywords       []string  `json:"common_keywords"`
	Winner               Entry     `json:"winner"`
}

// Engine builds comparative reports.
type Engine struct {
	namer *Namer
	now   func() time.Time
}

// NewEngine returns an Engine naming sites with namer. A nil namer uses the
// built-in alias table.
func NewEngine(namer *Namer) *Engine {
	if namer == nil {
		namer = defaultNamer
	}
	return &Engine{namer: namer, now: time.Now}
}

// Build is shorthand for NewEngine(nil).Build.
func Build(records []Record) (*Report, error) {
	return NewEngine(nil).Build(records)
}

// Build scores every record and ranks the sites by score, highest first.
// Sites with equal scores keep their input order.
func (e *Engine) Build(records []Record) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}

	entries := make([]Entry, len(records))
	perSite := make([][]string, len(records))
	total, words, links := 0, 0, 0
	for i, r := range records {
		breakdown := analyzer.Score(r.Features)
		entries[i] = Entry{
			SiteName:      e.namer.Name(r.SiteURL),
			URL:           r.SiteURL,
			Features:      r.Features,
			Score:         breakdown.Total,
			Breakdown:     breakdown,
			AltPercentage: r.Features.AltPercentage(),
		}
		perSite[i] = r.Features.Keywords
		total += breakdown.Total
		words += r.Features.WordCount
		links += r.Features.InternalLinks
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	n := float64(len(entries))
	return &Report{
		GeneratedAt:          e.now(),
		Entries:              entries,
		AverageScore:         float64(total) / n,
		AverageWordCount:     float64(words) / n,
		AverageInternalLinks: float64(links) / n,
		CommonKeywords:       keywords.CommonAcrossSites(perSite),
		Winner:               entries[0],
	}, nil
}

// Top returns at most n entries from the top of the ranking.
func (r *Report) Top(n int) []Entry {
	if n > len(r.Entries) {
		n = len(r.Entries)
	}
	if n < 0 {
		n = 0
	}
	return r.Entries[:n]
}

// ByWordCount returns the entries ordered by word count, largest first.
func (r *Report) ByWordCount() []Entry {
	return r.sortedCopy(func(a, b Entry) bool {
		return a.Features.WordCount > b.Features.WordCount
	})
}

// ByAltPercentage returns the entries ordered by alt-text coverage, highest
// first.
func (r *Report) ByAltPercentage() []Entry {
	return r.sortedCopy(func(a, b Entry) bool {
		return a.AltPercentage > b.AltPercentage
	})
}

func (r *Report) sortedCopy(less func(a, b Entry) bool) []Entry {
	out := make([]Entry, len(r.Entries))
	copy(out, r.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// Rating labels a rubric score.
func Rating(score int) string {
	switch {
	case score >= 8:
		return "Excellent"
	case score >= 6:
		return "Good"
	case score >= 4:
		return "Fair"
	}
	return "Needs improvement"
}

// MetaStatus describes a meta description length against the 120-160 band.
func MetaStatus(desc string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	switch {
	case n >= 120 && n <= 160:
		return "optimal"
	case n > 160:
		return "too long"
	case n > 0:
		return "too short"
	}
	return "missing"
}

// Advantages lists the strengths of an entry, in rubric order.
func Advantages(e Entry) []string {
	f := e.Features
	var adv []string

	if f.Title != "" {
		adv = append(adv, "Title: "+Truncate(f.Title, 80))
	}
	if f.MetaDescription != "" {
		n := utf8.RuneCountInString(f.MetaDescription)
		if MetaStatus(f.MetaDescription) == "optimal" {
			adv = append(adv, fmt.Sprintf("Meta description: optimal length (%d characters)", n))
		} else {
			adv = append(adv, fmt.Sprintf("Meta description: present (%d characters)", n))
		}
	}
	if len(f.H1Tags) == 1 {
		adv = append(adv, "H1 structure: exactly one H1")
	}
	if len(f.H2Tags) >= 5 {
		adv = append(adv, fmt.Sprintf("H2 structure: %d H2 headings", len(f.H2Tags)))
	}
	if f.WordCount >= 600 {
		adv = append(adv, fmt.Sprintf("Content: %d words", f.WordCount))
	}
	if f.InternalLinks >= 40 {
		adv = append(adv, fmt.Sprintf("Internal links: %d links", f.InternalLinks))
	}
	if e.Breakdown.Points(analyzer.CriterionImageAlt) > 0 {
		adv = append(adv, fmt.Sprintf("Image alt text: %.1f%% covered", e.AltPercentage))
	}

	return adv
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
