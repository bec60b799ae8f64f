package keywords

import "sort"

const (
	// DefaultTopN is the number of keywords kept per page.
	DefaultTopN = 20

	// CommonLimit caps the cross-site common keyword list.
	CommonLimit = 15
)

// Frequency is one distinct token with its occurrence count. FirstSeen is the
// index of its first occurrence in the counted sequence.
type Frequency struct {
	Word      string `json:"word"`
	Count     int    `json:"count"`
	FirstSeen int    `json:"-"`
}

// Frequencies counts tokens and orders them by count descending, then by
// first occurrence.
func Frequencies(tokens []string) []Frequency {
	index := make(map[string]int, len(tokens))
	freqs := make([]Frequency, 0)

	for i, tok := range tokens {
		if pos, ok := index[tok]; ok {
			freqs[pos].Count++
			continue
		}
		index[tok] = len(freqs)
		freqs = append(freqs, Frequency{Word: tok, Count: 1, FirstSeen: i})
	}

	// freqs is built in first-seen order, so a stable sort on count alone
	// keeps first-seen ascending within equal counts.
	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Count > freqs[j].Count
	})
	return freqs
}

// TopKeywords returns at most n of the most frequent tokens. A non-positive n
// yields an empty result.
func TopKeywords(tokens []string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	freqs := Frequencies(tokens)
	if len(freqs) > n {
		freqs = freqs[:n]
	}

	words := make([]string, len(freqs))
	for i, f := range freqs {
		words[i] = f.Word
	}
	return words
}

// Extract tokenizes text and returns its top n keywords.
func Extract(text string, n int) []string {
	return TopKeywords(Tokenize(text), n)
}

// CommonAcrossSites counts keywords over the concatenation of every site's
// list and returns up to CommonLimit of them, ranked like Frequencies. A
// keyword is kept only when its combined count exceeds one and it shows up
// in at least two site lists, so repeats inside a single list never qualify
// on their own.
func CommonAcrossSites(perSite [][]string) []string {
	var all []string
	sites := make(map[string]int)
	for _, list := range perSite {
		seen := make(map[string]struct{}, len(list))
		for _, kw := range list {
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				sites[kw]++
			}
		}
		all = append(all, list...)
	}

	common := make([]string, 0, CommonLimit)
	for _, f := range Frequencies(all) {
		if len(common) == CommonLimit {
			break
		}
		if f.Count > 1 && sites[f.Word] > 1 {
			common = append(common, f.Word)
		}
	}
	return common
}
