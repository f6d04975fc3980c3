package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meghashyamc/docquery/db/searchdb"
	"github.com/meghashyamc/docquery/llm"
	"github.com/meghashyamc/docquery/logger"
)

// Index is one immutable build over every stored document.
type Index struct {
	db            searchdb.DB
	Generation    uint64
	BuiltAt       time.Time
	DocumentCount int
	ChunkCount    int

	// Queries running against this index; it is closed once they drain after a swap.
	inflight sync.WaitGroup
}

func (idx *Index) retire(logger logger.Logger) {
	go func() {
		idx.inflight.Wait()
		if err := idx.db.Close(); err != nil {
			logger.Warn("could not close retired index", "generation", idx.Generation, "err", err.Error())
			return
		}
		logger.Debug("retired index", "generation", idx.Generation)
	}()
}

type Answer struct {
	Response   string
	Passages   []llm.Passage
	Generation uint64
}

// QueryEngine answers questions against a single Index snapshot.
type QueryEngine struct {
	index    *Index
	answerer llm.Answerer
	topK     int
}

func (idx *Index) QueryEngine(answerer llm.Answerer, topK int) *QueryEngine {
	return &QueryEngine{index: idx, answerer: answerer, topK: topK}
}

func (e *QueryEngine) Query(ctx context.Context, question string) (*Answer, error) {
	hits, err := e.index.db.Search(question, e.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}

	passages := make([]llm.Passage, len(hits))
	for i, hit := range hits {
		passages[i] = llm.Passage{Document: hit.Document, Chunk: hit.Number, Text: hit.Text, Score: hit.Score}
	}

	response, err := e.answerer.Answer(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	return &Answer{Response: response, Passages: passages, Generation: e.index.Generation}, nil
}
