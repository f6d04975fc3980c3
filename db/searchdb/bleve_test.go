package searchdb

import (
	"fmt"
	"testing"

	"github.com/meghashyamc/docquery/logger"
	"github.com/stretchr/testify/require"
)

var parseQuotedQueryTestCases = []struct {
	name              string
	input             string
	expectedQuoted    []string
	expectedRemaining string
}{
	{
		name:              "Whole question quoted",
		input:             `"return window"`,
		expectedQuoted:    []string{"return window"},
		expectedRemaining: "",
	},
	{
		name:              "Quoted phrase with remaining terms",
		input:             `how long is the "return window"?`,
		expectedQuoted:    []string{"return window"},
		expectedRemaining: "how long is the ?",
	},
	{
		name:              "Multiple quoted phrases",
		input:             `"late fee" or "grace period"`,
		expectedQuoted:    []string{"late fee", "grace period"},
		expectedRemaining: "or",
	},
	{
		name:              "No quotes",
		input:             `who signed the contract`,
		expectedQuoted:    nil,
		expectedRemaining: "who signed the contract",
	},
	{
		name:              "Empty quoted phrase",
		input:             `"" deadline`,
		expectedQuoted:    nil,
		expectedRemaining: "deadline",
	},
	{
		name:              "Quoted phrase with extra spaces",
		input:             `  "  net income  "   2023  `,
		expectedQuoted:    []string{"net income"},
		expectedRemaining: "2023",
	},
}

func TestParseQuotedQuery(t *testing.T) {
	assert := require.New(t)
	for _, testCase := range parseQuotedQueryTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			quoted, remaining := parseQuotedQuery(testCase.input)

			assert.Equal(testCase.expectedQuoted, quoted, "quoted phrases should match")
			assert.Equal(testCase.expectedRemaining, remaining, "remaining (not quoted) terms should match")
		})
	}
}

var testChunks = []Chunk{
	{ID: "handbook.txt#0", Document: "handbook.txt", Number: 0, Text: "Employees get twenty days of paid vacation each year."},
	{ID: "handbook.txt#1", Document: "handbook.txt", Number: 1, Text: "Remote work requires manager approval."},
	{ID: "menu.md#0", Document: "menu.md", Number: 0, Text: "The cafeteria serves soup on Mondays."},
	{ID: "menu.md#1", Document: "menu.md", Number: 1, Text: "Vegetarian lasagna is available on Fridays."},
}

func newTestIndex(t *testing.T, assert *require.Assertions, chunks []Chunk) *BleveDB {
	index, err := New(logger.Discard())
	assert.NoError(err)
	t.Cleanup(func() { index.Close() })
	assert.NoError(index.BuildIndex(chunks))
	return index
}

func TestSearchRanksMatchingChunkFirst(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert, testChunks)

	count, err := index.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(len(testChunks)), count)

	hits, err := index.Search("How many vacation days do employees get?", 2)
	assert.NoError(err)
	assert.NotEmpty(hits)
	assert.Equal("handbook.txt", hits[0].Document)
	assert.Equal(0, hits[0].Number)
	assert.Equal(testChunks[0].Text, hits[0].Text)
	assert.Greater(hits[0].Score, 0.0)
}

func TestSearchPhraseBoost(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert, testChunks)

	hits, err := index.Search(`"vegetarian lasagna"`, 1)
	assert.NoError(err)
	assert.Len(hits, 1)
	assert.Equal("menu.md", hits[0].Document)
	assert.Equal(1, hits[0].Number)
}

func TestSearchFallsBackToLeadingChunks(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert, testChunks)

	for _, question := range []string{"quantum chromodynamics", "???", ""} {
		hits, err := index.Search(question, 3)
		assert.NoError(err, question)
		assert.Len(hits, 3, question)
		assert.Equal("handbook.txt", hits[0].Document)
		assert.Equal(0, hits[0].Number)
		assert.Equal("handbook.txt", hits[1].Document)
		assert.Equal(1, hits[1].Number)
		assert.Equal("menu.md", hits[2].Document)
	}
}

func TestSearchLimit(t *testing.T) {
	assert := require.New(t)

	chunks := make([]Chunk, 0, 250)
	for i := 0; i < 250; i++ {
		chunks = append(chunks, Chunk{
			ID:       fmt.Sprintf("big.txt#%d", i),
			Document: "big.txt",
			Number:   i,
			Text:     fmt.Sprintf("Line %d mentions the keyword invoice.", i),
		})
	}
	index := newTestIndex(t, assert, chunks)

	count, err := index.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(250), count)

	hits, err := index.Search("invoice", 5)
	assert.NoError(err)
	assert.Len(hits, 5)

	hits, err = index.Search("invoice", 0)
	assert.NoError(err)
	assert.Empty(hits)
}

func TestSearchMatchesDocumentNameIgnoringCase(t *testing.T) {
	assert := require.New(t)
	chunks := append([]Chunk{
		{ID: "Report.txt#0", Document: "Report.txt", Number: 0, Text: "Quarterly figures are attached."},
	}, testChunks...)
	index := newTestIndex(t, assert, chunks)

	for _, question := range []string{"What does Report.txt say?", "summarize report.txt"} {
		hits, err := index.Search(question, 1)
		assert.NoError(err, question)
		assert.Len(hits, 1, question)
		assert.Equal("Report.txt", hits[0].Document, question)
	}
}
