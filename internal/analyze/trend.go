package analyze

import (
	"sort"
	"strings"
	"unicode"

	"github.com/signalscale/signalscale/internal/signal"
)

const defaultTrendLimit = 30

// URL fragments and markup noise that survive tokenization.
var trendStopwords = map[string]struct{}{
	"https": {}, "http": {}, "href": {}, "nofollow": {},
	"target": {}, "blank": {}, "google": {}, "news": {},
	"entry": {}, "espanol": {}, "this": {}, "that": {},
	"with": {}, "from": {}, "have": {}, "about": {},
	"what": {}, "when": {}, "your": {}, "their": {},
	"they": {}, "them": {}, "will": {}, "just": {},
	"been": {}, "more": {}, "than": {}, "after": {},
}

// ExtractTrends counts hashtags and words longer than three characters
// across post titles and bodies, lowercased. Ties keep first-seen order.
func ExtractTrends(posts []signal.Post, limit int) []signal.TrendTerm {
	if limit <= 0 {
		limit = defaultTrendLimit
	}

	counts := make(map[string]int)
	var order []string
	bump := func(term string) {
		if _, seen := counts[term]; !seen {
			order = append(order, term)
		}
		counts[term]++
	}

	for _, post := range posts {
		for _, field := range strings.Fields(post.Title + " " + post.Text) {
			if strings.HasPrefix(field, "#") {
				if tag := "#" + termBody(field[1:]); len(tag) > 1 {
					bump(strings.ToLower(tag))
				}
				continue
			}
			word := strings.ToLower(termBody(field))
			if len(word) <= 3 {
				continue
			}
			if _, stop := trendStopwords[word]; stop {
				continue
			}
			bump(word)
		}
	}

	terms := make([]signal.TrendTerm, 0, len(order))
	for _, term := range order {
		terms = append(terms, signal.TrendTerm{Term: term, Count: counts[term]})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Count > terms[j].Count
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// termBody keeps only letters and digits.
func termBody(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
