package analyzer

import (
	"strings"

	"github.com/seo-optimizer/seoaudit/keywords"
)

// Assemble combines parsed DOM facts into a PageFeatures record, keeping the
// topN most frequent keywords of the page text.
//
// Link classification is taken from the facts as-is. WordCount is the raw
// whitespace-separated piece count of the text, without stop-word filtering.
func Assemble(facts DOMFacts, topN int) PageFeatures {
	f := PageFeatures{
		URL:             facts.URL,
		Title:           strings.TrimSpace(facts.Title),
		MetaDescription: strings.TrimSpace(facts.MetaDescription),
		H1Tags:          cloneStrings(facts.H1),
		H2Tags:          cloneStrings(facts.H2),
		Keywords:        keywords.Extract(facts.Text, topN),
		WordCount:       len(strings.Fields(facts.Text)),
		ImagesCount:     len(facts.Images),
	}

	for _, l := range facts.Links {
		if l.Internal {
			f.InternalLinks++
		} else {
			f.ExternalLinks++
		}
	}
	for _, img := range facts.Images {
		if img.HasAlt {
			f.ImagesWithAlt++
		}
	}

	return f
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
