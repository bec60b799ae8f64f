package analyzer

import (
	"strings"
	"unicode/utf8"
)

// MaxScore is the highest total the rubric can award.
const MaxScore = 10

// contentMax bounds the summed content criteria so the alt-text point
// always fits under MaxScore.
const contentMax = MaxScore - 1

// Rubric thresholds.
const (
	titleShortMax     = 10
	metaIdealMin      = 120
	metaIdealMax      = 160
	metaAcceptableMin = 50
	h2Good            = 5
	h2Fair            = 3
	wordsGood         = 600
	wordsFair         = 400
	internalLinksGood = 40
	altCoverageNumer  = 4 // 80% expressed as 4/5
	altCoverageDenom  = 5
)

// Score applies the fixed rubric to f. Every rule is evaluated on its own.
// The content criteria can earn up to 11 points between them but together
// contribute at most MaxScore-1; the alt-text point is added on top. The
// total therefore stays within 0..MaxScore, and a page without images
// tops out at 9.
func Score(f PageFeatures) ScoreBreakdown {
	criteria := []CriterionScore{
		{Criterion: CriterionTitle, Points: scoreTitle(f.Title), Max: 2},
		{Criterion: CriterionMetaDescription, Points: scoreMeta(f.MetaDescription), Max: 2},
		{Criterion: CriterionH1, Points: scoreH1(len(f.H1Tags)), Max: 2},
		{Criterion: CriterionH2, Points: scoreH2(len(f.H2Tags)), Max: 2},
		{Criterion: CriterionWordCount, Points: scoreWords(f.WordCount), Max: 2},
		{Criterion: CriterionInternalLinks, Points: scoreInternalLinks(f.InternalLinks), Max: 1},
		{Criterion: CriterionImageAlt, Points: scoreAlt(f.ImagesCount, f.ImagesWithAlt), Max: 1},
	}

	content, alt := 0, 0
	for _, c := range criteria {
		if c.Criterion == CriterionImageAlt {
			alt += c.Points
			continue
		}
		content += c.Points
	}
	total := min(content, contentMax) + alt

	return ScoreBreakdown{
		Total:    total,
		Max:      MaxScore,
		Criteria: criteria,
	}
}

func scoreTitle(title string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n > titleShortMax:
		return 2
	case n > 0:
		return 1
	}
	return 0
}

func scoreMeta(desc string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	switch {
	case n >= metaIdealMin && n <= metaIdealMax:
		return 2
	case n > metaAcceptableMin:
		return 1
	}
	return 0
}

func scoreH1(count int) int {
	switch {
	case count == 1:
		return 2
	case count > 1:
		return 1
	}
	return 0
}

func scoreH2(count int) int {
	switch {
	case count >= h2Good:
		return 2
	case count >= h2Fair:
		return 1
	}
	return 0
}

func scoreWords(count int) int {
	switch {
	case count >= wordsGood:
		return 2
	case count >= wordsFair:
		return 1
	}
	return 0
}

func scoreInternalLinks(count int) int {
	if count >= internalLinksGood {
		return 1
	}
	return 0
}

// scoreAlt compares in integers so 80% exactly is never lost to rounding.
func scoreAlt(images, withAlt int) int {
	if images > 0 && withAlt*altCoverageDenom >= images*altCoverageNumer {
		return 1
	}
	return 0
}
