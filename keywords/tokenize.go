// Package keywords turns page text into a filtered token stream and ranks
// the tokens by frequency.
package keywords

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinTokenLength is the shortest run of letters kept as a token.
const MinTokenLength = 3

// tokenPattern matches maximal runs of Latin, Cyrillic and Estonian letters.
var tokenPattern = regexp.MustCompile(`[a-zа-яёõäöü]{3,}`)

// stopWords covers Russian, English and Estonian function words.
var stopWords = map[string]struct{}{
	// Russian
	"и": {}, "в": {}, "на": {}, "с": {}, "по": {}, "для": {}, "не": {},
	"от": {}, "за": {}, "к": {}, "о": {},
	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {},
	// Estonian
	"ja": {}, "see": {}, "et": {}, "mis": {}, "kui": {}, "ka": {},
	"või": {}, "veel": {}, "oli": {},
}

var lower = cases.Lower(language.Und)

// IsStopWord reports whether word is filtered out of the token stream.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Tokenize lower-cases text and returns its qualifying tokens in reading
// order. Duplicates are kept.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(lower.String(text), -1)

	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if IsStopWord(m) {
			continue
		}
		tokens = append(tokens, m)
	}
	return tokens
}
