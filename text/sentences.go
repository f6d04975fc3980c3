package text

import (
	"regexp"
	"strings"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// SplitSentences breaks text into trimmed sentences. Trailing text without terminal
// punctuation is kept as a final sentence.
func SplitSentences(text string) []string {
	var sentences []string
	end := 0
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		if sentence := normalizeSpace(text[loc[0]:loc[1]]); sentence != "" && !isPunctuationOnly(sentence) {
			sentences = append(sentences, sentence)
		}
		end = loc[1]
	}
	if rest := normalizeSpace(text[end:]); rest != "" && !isPunctuationOnly(rest) {
		sentences = append(sentences, rest)
	}
	return sentences
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isPunctuationOnly(s string) bool {
	return strings.Trim(s, ".!? ") == ""
}
