package llm

import (
	"context"
	"sort"
	"strings"

	"github.com/meghashyamc/docquery/text"
)

const (
	maxExtractedSentences = 3
	noContextAnswer       = "I could not find any relevant information in the uploaded documents."
)

// ExtractiveAnswerer answers offline by quoting the sentences from the passages that share
// the most terms with the question. Output is deterministic for a given input.
type ExtractiveAnswerer struct{}

func NewExtractive() *ExtractiveAnswerer {
	return &ExtractiveAnswerer{}
}

type scoredSentence struct {
	text     string
	position int
	score    int
}

func (a *ExtractiveAnswerer) Answer(ctx context.Context, question string, passages []Passage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	questionTerms := map[string]bool{}
	for _, term := range text.Terms(question) {
		questionTerms[term] = true
	}

	var sentences []scoredSentence
	seen := map[string]bool{}
	for _, passage := range passages {
		for _, sentence := range text.SplitSentences(passage.Text) {
			// Overlapping chunks repeat sentences.
			if seen[sentence] {
				continue
			}
			seen[sentence] = true

			score := 0
			for _, term := range text.Terms(sentence) {
				if questionTerms[term] {
					score++
				}
			}
			sentences = append(sentences, scoredSentence{text: sentence, position: len(sentences), score: score})
		}
	}

	if len(sentences) == 0 {
		return noContextAnswer, nil
	}

	ranked := make([]scoredSentence, len(sentences))
	copy(ranked, sentences)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if ranked[0].score == 0 {
		return sentences[0].text, nil
	}

	var selected []scoredSentence
	for _, sentence := range ranked {
		if sentence.score == 0 || len(selected) == maxExtractedSentences {
			break
		}
		selected = append(selected, sentence)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].position < selected[j].position })

	parts := make([]string, len(selected))
	for i, sentence := range selected {
		parts[i] = sentence.text
	}
	return strings.Join(parts, " "), nil
}
