package analyzer

import "time"

// Link is one anchor target found on a page. Internal is set by the parser
// when the target stays on the page's own host.
type Link struct {
	Href     string
	Internal bool
}

// Image is one img tag. HasAlt is true when the alt attribute is non-empty.
type Image struct {
	Src    string
	HasAlt bool
}

// DOMFacts is what the HTML parser hands to Assemble. Missing title or meta
// description is represented by the empty string.
type DOMFacts struct {
	URL             string
	Title           string
	MetaDescription string
	H1              []string
	H2              []string
	Text            string
	Links           []Link
	Images          []Image
}

// PageFeatures is the on-page signal record of one analyzed page. It is
// built once by Assemble and treated as read-only afterwards.
type PageFeatures struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	H1Tags          []string `json:"h1_tags"`
	H2Tags          []string `json:"h2_tags"`
	Keywords        []string `json:"keywords"`
	WordCount       int      `json:"word_count"`
	InternalLinks   int      `json:"internal_links"`
	ExternalLinks   int      `json:"external_links"`
	ImagesCount     int      `json:"images_count"`
	ImagesWithAlt   int      `json:"images_with_alt"`
}

// AltPercentage returns the share of images carrying alt text, 0-100.
// Pages without images report 0.
func (f PageFeatures) AltPercentage() float64 {
	if f.ImagesCount == 0 {
		return 0
	}
	return float64(f.ImagesWithAlt) / float64(f.ImagesCount) * 100
}

// Criterion names one rubric rule.
type Criterion string

const (
	CriterionTitle           Criterion = "title"
	CriterionMetaDescription Criterion = "meta_description"
	CriterionH1              Criterion = "h1"
	CriterionH2              Criterion = "h2"
	CriterionWordCount       Criterion = "word_count"
	CriterionInternalLinks   Criterion = "internal_links"
	CriterionImageAlt        Criterion = "image_alt"
)

// CriterionScore is the contribution of a single rubric rule.
type CriterionScore struct {
	Criterion Criterion `json:"criterion"`
	Points    int       `json:"points"`
	Max       int       `json:"max"`
}

// ScoreBreakdown is the rubric result for one page.
type ScoreBreakdown struct {
	Total    int              `json:"total_score"`
	Max      int              `json:"max_score"`
	Criteria []CriterionScore `json:"criteria"`
}

// Points returns the points earned for c, or 0 if c was not scored.
func (b ScoreBreakdown) Points(c Criterion) int {
	for _, cs := range b.Criteria {
		if cs.Criterion == c {
			return cs.Points
		}
	}
	return 0
}

// Audit is a scored page as produced by Analyzer.
type Audit struct {
	Features        PageFeatures   `json:"features"`
	Score           ScoreBreakdown `json:"score"`
	Recommendations []string       `json:"recommendations"`
	FetchedAt       time.Time      `json:"fetchedAt"`
	LoadTime        int64          `json:"loadTimeMs"`
}
