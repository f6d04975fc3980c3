package text

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"what": true, "which": true, "who": true, "whom": true, "how": true,
	"when": true, "where": true, "why": true, "this": true, "that": true,
	"it": true, "its": true, "me": true, "my": true, "i": true,
	"you": true, "your": true, "can": true, "about": true, "from": true,
}

// Terms returns the lowercase words of s that carry meaning for matching, in order.
func Terms(s string) []string {
	var terms []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if len(word) < 2 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}
