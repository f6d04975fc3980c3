package searchdb

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/docquery/logger"
)

const indexingBatchSize = 100

const documentNameAnalyzer = "document_name"

const (
	indexFieldDocument = "document"
	indexFieldNumber   = "chunk"
	indexFieldText     = "text"
)

var quotedPhrasePattern = regexp.MustCompile(`"([^"]*)"`)

// BleveDB is an in-memory index over document chunks. It is built once and then only read.
type BleveDB struct {
	logger logger.Logger
	index  bleve.Index
}

func New(logger logger.Logger) (*BleveDB, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		logger.Error("could not build index mapping", "err", err.Error())
		return nil, fmt.Errorf("could not create index: %w", err)
	}
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		logger.Error("could not create in-memory index", "err", err.Error())
		return nil, fmt.Errorf("could not create index: %w", err)
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func (b *BleveDB) BuildIndex(chunks []Chunk) error {

	batch := b.index.NewBatch()

	for i, chunk := range chunks {

		if err := batch.Index(chunk.ID, chunk); err != nil {
			b.logger.Error("could not index chunk", "document", chunk.Document, "chunk", chunk.Number, "err", err.Error())
			return err
		}

		if (i+1)%indexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index chunks", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() (mapping.IndexMapping, error) {

	indexMapping := bleve.NewIndexMapping()
	chunkMapping := bleve.NewDocumentMapping()

	// Whole name as one lowercased token so question terms match regardless of case
	if err := indexMapping.AddCustomAnalyzer(documentNameAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, err
	}

	// Document name, also used for ordering
	documentFieldMapping := bleve.NewTextFieldMapping()
	documentFieldMapping.Analyzer = documentNameAnalyzer
	chunkMapping.AddFieldMappingsAt(indexFieldDocument, documentFieldMapping)

	chunkMapping.AddFieldMappingsAt(indexFieldNumber, bleve.NewNumericFieldMapping())

	// Text is stored so hits can be handed to the answerer without re-reading files
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = true
	textFieldMapping.IncludeTermVectors = true
	chunkMapping.AddFieldMappingsAt(indexFieldText, textFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Index = false
	chunkMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.DefaultMapping = chunkMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping, nil
}

// Search returns the best matching chunks for the question. When nothing matches, the
// first chunks in document order are returned instead so the caller always has context.
func (b *BleveDB) Search(question string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return []Hit{}, nil
	}

	if searchQuery := buildSearchQuery(question); searchQuery != nil {
		hits, err := b.search(bleve.NewSearchRequestOptions(searchQuery, limit, 0, false))
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return hits, nil
		}
		b.logger.Debug("no chunk matched question, falling back to leading chunks")
	}

	fallback := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	fallback.SortBy([]string{indexFieldDocument, indexFieldNumber})
	return b.search(fallback)
}

func (b *BleveDB) search(searchRequest *bleve.SearchRequest) ([]Hit, error) {
	searchRequest.Fields = []string{indexFieldDocument, indexFieldNumber, indexFieldText}

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(searchResult.Hits))
	for _, match := range searchResult.Hits {
		hit := Hit{ID: match.ID, Score: match.Score}
		if document, ok := match.Fields[indexFieldDocument].(string); ok {
			hit.Document = document
		}
		if number, ok := match.Fields[indexFieldNumber].(float64); ok {
			hit.Number = int(number)
		}
		if text, ok := match.Fields[indexFieldText].(string); ok {
			hit.Text = text
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildSearchQuery returns nil for a question with no searchable terms.
func buildSearchQuery(question string) query.Query {

	const (
		boostForText        = 3.0
		boostForDocument    = 2.0
		boostForPhraseMatch = 5.0
	)

	phrases, remaining := parseQuotedQuery(question)
	terms := strings.ToLower(strings.TrimSpace(strings.Join(append(phrases, remaining), " ")))
	if terms == "" {
		return nil
	}

	disjunctQuery := bleve.NewDisjunctionQuery()

	textQuery := bleve.NewMatchQuery(terms)
	textQuery.SetField(indexFieldText)
	textQuery.SetBoost(boostForText)
	disjunctQuery.AddQuery(textQuery)

	for _, term := range strings.Fields(terms) {
		// "report.txt?" should still hit report.txt
		term = strings.TrimFunc(term, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
		if term == "" {
			continue
		}
		documentQuery := bleve.NewTermQuery(term)
		documentQuery.SetField(indexFieldDocument)
		documentQuery.SetBoost(boostForDocument)
		disjunctQuery.AddQuery(documentQuery)
	}

	for _, phrase := range phrases {
		phraseQuery := bleve.NewMatchPhraseQuery(strings.ToLower(phrase))
		phraseQuery.SetField(indexFieldText)
		phraseQuery.SetBoost(boostForPhraseMatch)
		disjunctQuery.AddQuery(phraseQuery)
	}

	return disjunctQuery
}

// parseQuotedQuery splits out "quoted phrases" from the rest of the question.
func parseQuotedQuery(question string) ([]string, string) {
	var phrases []string
	for _, match := range quotedPhrasePattern.FindAllStringSubmatch(question, -1) {
		if phrase := strings.TrimSpace(match[1]); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}

	remaining := quotedPhrasePattern.ReplaceAllString(question, " ")
	return phrases, strings.Join(strings.Fields(remaining), " ")
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
