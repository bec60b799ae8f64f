package analyzer

import (
	"fmt"
	"unicode/utf8"
)

// Recommendations lists one suggestion for every rubric rule that did not
// earn its full points.
func Recommendations(f PageFeatures, b ScoreBreakdown) []string {
	var recs []string

	for _, c := range b.Criteria {
		if c.Points == c.Max {
			continue
		}

		switch c.Criterion {
		case CriterionTitle:
			if f.Title == "" {
				recs = append(recs, "Add a title tag to your page")
			} else {
				recs = append(recs, "Title tag is too short (should be longer than 10 characters)")
			}
		case CriterionMetaDescription:
			n := utf8.RuneCountInString(f.MetaDescription)
			switch {
			case n == 0:
				recs = append(recs, "Add a meta description")
			case n > metaIdealMax:
				recs = append(recs, fmt.Sprintf("Meta description is too long (%d characters, should be 120-160)", n))
			default:
				recs = append(recs, fmt.Sprintf("Meta description is too short (%d characters, should be 120-160)", n))
			}
		case CriterionH1:
			if len(f.H1Tags) == 0 {
				recs = append(recs, "Add an H1 heading")
			} else {
				recs = append(recs, fmt.Sprintf("Multiple H1 headings found (%d) - consider using only one", len(f.H1Tags)))
			}
		case CriterionH2:
			recs = append(recs, fmt.Sprintf("Structure the page with more H2 headings (found %d, aim for at least 5)", len(f.H2Tags)))
		case CriterionWordCount:
			recs = append(recs, fmt.Sprintf("Add more content (found %d words, aim for at least 600)", f.WordCount))
		case CriterionInternalLinks:
			recs = append(recs, fmt.Sprintf("Add more internal links (found %d, aim for at least 40)", f.InternalLinks))
		case CriterionImageAlt:
			if f.ImagesCount == 0 {
				recs = append(recs, "Add images with descriptive alt text")
			} else {
				recs = append(recs, fmt.Sprintf("Add alt text to images (%.1f%% covered, aim for at least 80%%)", f.AltPercentage()))
			}
		}
	}

	return recs
}
