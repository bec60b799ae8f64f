package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/seo-optimizer/seoaudit/compare"
)

const (
	dateLayout      = "2006-01-02 15:04:05"
	h2Preview       = 20
	keywordsPerLine = 5
	footer          = "*Report generated automatically*"
)

// MarkdownWriter renders reports as Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// WriteSite renders the report of a single site.
func (w *MarkdownWriter) WriteSite(r *SiteReport, siteName string) error {
	f := r.SEOData
	md := markdown.NewMarkdown(w.output)

	md.H1("SEO analysis: " + siteName)
	md.PlainText("")
	md.PlainTextf("**URL:** %s  ", r.SiteURL)
	md.PlainTextf("**Analysis date:** %s", r.AnalysisDate.Format(dateLayout))
	md.PlainText("")
	md.HorizontalRule()

	md.H2("Title")
	md.PlainText("")
	md.PlainText(orMissing(f.Title))
	md.PlainText("")

	md.H2("Meta description")
	md.PlainText("")
	md.PlainText(orMissing(f.MetaDescription))
	md.PlainText("")

	md.H2(fmt.Sprintf("H1 tags (%d)", len(f.H1Tags)))
	md.PlainText("")
	if len(f.H1Tags) == 0 {
		md.PlainText("*No H1 tags found*")
	} else {
		md.OrderedList(f.H1Tags...)
	}
	md.PlainText("")

	md.H2(fmt.Sprintf("H2 tags (%d)", len(f.H2Tags)))
	md.PlainText("")
	switch {
	case len(f.H2Tags) == 0:
		md.PlainText("*No H2 tags found*")
	case len(f.H2Tags) > h2Preview:
		md.OrderedList(f.H2Tags[:h2Preview]...)
		md.PlainText("")
		md.PlainTextf("*... and %d more H2 tags*", len(f.H2Tags)-h2Preview)
	default:
		md.OrderedList(f.H2Tags...)
	}
	md.PlainText("")

	md.H2("Top keywords")
	md.PlainText("")
	if len(f.Keywords) == 0 {
		md.PlainText("*No keywords found*")
	}
	for i := 0; i < len(f.Keywords); i += keywordsPerLine {
		end := min(i+keywordsPerLine, len(f.Keywords))
		bold := make([]string, 0, end-i)
		for _, kw := range f.Keywords[i:end] {
			bold = append(bold, "**"+kw+"**")
		}
		md.PlainText(strings.Join(bold, ", "))
	}
	md.PlainText("")

	md.H2("Statistics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Word count", strconv.Itoa(f.WordCount)},
			{"Internal links", strconv.Itoa(f.InternalLinks)},
			{"External links", strconv.Itoa(f.ExternalLinks)},
			{"Images", strconv.Itoa(f.ImagesCount)},
			{"Images with alt text", fmt.Sprintf("%d (%.1f%%)", f.ImagesWithAlt, f.AltPercentage())},
		},
	})
	md.PlainText("")

	md.H2("Details")
	md.PlainText("")
	w.writeFullList(md, "All H1 tags", f.H1Tags)
	w.writeFullList(md, "All H2 tags", f.H2Tags)

	md.H3(fmt.Sprintf("All keywords (%d)", len(f.Keywords)))
	md.PlainText("")
	md.PlainText(orNone(strings.Join(f.Keywords, ", ")))
	md.PlainText("")

	md.HorizontalRule()
	md.PlainText(footer)

	return md.Build()
}

func (w *MarkdownWriter) writeFullList(md *markdown.Markdown, title string, items []string) {
	md.H3(title)
	md.PlainText("")
	if len(items) == 0 {
		md.PlainText("*None*")
	} else {
		md.BulletList(items...)
	}
	md.PlainText("")
}

// WriteComparison renders a comparative report.
func (w *MarkdownWriter) WriteComparison(rep *compare.Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Comparative SEO analysis")
	md.PlainText("")
	md.PlainTextf("**Analysis date:** %s  ", rep.GeneratedAt.Format(dateLayout))
	md.PlainTextf("**Sites analyzed:** %d", len(rep.Entries))
	md.PlainText("")
	md.HorizontalRule()

	w.writeRanking(md, rep)
	w.writeWinner(md, rep)
	w.writeSummary(md, rep)
	w.writeCategories(md, rep)

	md.HorizontalRule()
	md.PlainText(footer)

	return md.Build()
}

func (w *MarkdownWriter) writeRanking(md *markdown.Markdown, rep *compare.Report) {
	md.H2("Ranking by SEO score")
	md.PlainText("")

	for i, e := range rep.Entries {
		f := e.Features
		metaLen := len([]rune(strings.TrimSpace(f.MetaDescription)))

		md.H3(fmt.Sprintf("%d. %s - %d/%d", i+1, e.SiteName, e.Score, e.Breakdown.Max))
		md.PlainText("")
		md.PlainTextf("**URL:** %s", e.URL)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Metric", "Value", "Assessment"},
			Rows: [][]string{
				{"SEO score", fmt.Sprintf("**%d/%d**", e.Score, e.Breakdown.Max), compare.Rating(e.Score)},
				{"Title", orMissing(compare.Truncate(f.Title, 60)), check(f.Title != "")},
				{"Meta description", fmt.Sprintf("%s (%d characters)", compare.MetaStatus(f.MetaDescription), metaLen), check(f.MetaDescription != "")},
				{"H1 tags", strconv.Itoa(len(f.H1Tags)), grade(len(f.H1Tags) == 1, len(f.H1Tags) > 1)},
				{"H2 tags", strconv.Itoa(len(f.H2Tags)), grade(len(f.H2Tags) >= 5, len(f.H2Tags) > 0)},
				{"Word count", strconv.Itoa(f.WordCount), grade(f.WordCount >= 600, f.WordCount >= 400)},
				{"Internal links", strconv.Itoa(f.InternalLinks), grade(f.InternalLinks >= 40, true)},
				{"Images with alt", fmt.Sprintf("%.1f%% (%d/%d)", e.AltPercentage, f.ImagesWithAlt, f.ImagesCount), grade(e.AltPercentage >= 80, e.AltPercentage > 0)},
			},
		})
		md.PlainText("")
	}
	md.HorizontalRule()
}

func (w *MarkdownWriter) writeWinner(md *markdown.Markdown, rep *compare.Report) {
	winner := rep.Winner
	md.H2("Winner: " + winner.SiteName)
	md.PlainText("")
	md.PlainTextf("**%s** leads with %d/%d points.", winner.SiteName, winner.Score, winner.Breakdown.Max)
	md.PlainText("")

	if adv := compare.Advantages(winner); len(adv) > 0 {
		md.H3("Why " + winner.SiteName + " leads")
		md.PlainText("")
		md.BulletList(adv...)
		md.PlainText("")
	}
	md.PlainTextf("**URL:** %s", winner.URL)
	md.PlainText("")
	md.HorizontalRule()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, rep *compare.Report) {
	md.H2("Summary")
	md.PlainText("")
	md.H3("Top 3 sites")
	md.PlainText("")

	top := rep.Top(3)
	lines := make([]string, len(top))
	for i, e := range top {
		lines[i] = fmt.Sprintf("**%s** - %d/%d", e.SiteName, e.Score, e.Breakdown.Max)
	}
	md.OrderedList(lines...)
	md.PlainText("")

	md.H3(fmt.Sprintf("Average SEO score: %.1f/%d", rep.AverageScore, rep.Winner.Breakdown.Max))
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("**Average word count:** %.0f", rep.AverageWordCount),
		fmt.Sprintf("**Average internal links:** %.1f", rep.AverageInternalLinks),
	)
	md.PlainText("")

	if len(rep.CommonKeywords) > 0 {
		md.H3("Common keywords")
		md.PlainText("")
		md.PlainText(strings.Join(rep.CommonKeywords, ", "))
		md.PlainText("")
	}
	md.HorizontalRule()
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, rep *compare.Report) {
	md.H2("Category comparison")
	md.PlainText("")

	md.H3("Title")
	md.PlainText("")
	titles := make([]string, len(rep.Entries))
	for i, e := range rep.Entries {
		titles[i] = fmt.Sprintf("**%s:** %s", e.SiteName, orMissing(compare.Truncate(e.Features.Title, 70)))
	}
	md.BulletList(titles...)
	md.PlainText("")

	md.H3("Word count")
	md.PlainText("")
	byWords := rep.ByWordCount()
	rows := make([][]string, len(byWords))
	for i, e := range byWords {
		rows[i] = []string{e.SiteName, strconv.Itoa(e.Features.WordCount), trophy(e.Features.WordCount == byWords[0].Features.WordCount)}
	}
	md.Table(markdown.TableSet{Header: []string{"Site", "Words", "Leader"}, Rows: rows})
	md.PlainText("")

	md.H3("Image alt text")
	md.PlainText("")
	byAlt := rep.ByAltPercentage()
	rows = make([][]string, len(byAlt))
	for i, e := range byAlt {
		rows[i] = []string{e.SiteName, fmt.Sprintf("%.1f%%", e.AltPercentage), trophy(e.AltPercentage == byAlt[0].AltPercentage)}
	}
	md.Table(markdown.TableSet{Header: []string{"Site", "Coverage", "Leader"}, Rows: rows})
	md.PlainText("")
}

func orMissing(s string) string {
	if s == "" {
		return "*Missing*"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "*None*"
	}
	return s
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// grade is ✅ when good, ⚠️ when only fair, ❌ otherwise.
func grade(good, fair bool) string {
	switch {
	case good:
		return "✅"
	case fair:
		return "⚠️"
	}
	return "❌"
}

func trophy(lead bool) string {
	if lead {
		return "🏆"
	}
	return ""
}
