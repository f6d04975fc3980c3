package index

import (
	"strconv"
	"strings"

	"github.com/meghashyamc/docquery/db/searchdb"
	"github.com/meghashyamc/docquery/text"
)

// SentenceChunker splits documents into runs of sentences, consecutive chunks sharing
// overlapSentences sentences.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Chunk always yields at least one chunk so every stored document is represented.
func (c *SentenceChunker) Chunk(doc *Document) []searchdb.Chunk {
	sentences := text.SplitSentences(doc.Content)
	if len(sentences) == 0 {
		sentences = []string{doc.Name}
	}

	var chunks []searchdb.Chunk
	for i, idx := 0, 0; i < len(sentences); idx++ {
		end := min(i+c.sentencesPerChunk, len(sentences))
		chunks = append(chunks, searchdb.Chunk{
			ID:       doc.Name + "#" + strconv.Itoa(idx),
			Document: doc.Name,
			Number:   idx,
			Text:     strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
