package text

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	assert := require.New(t)

	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "whitespace", input: " \n\t ", expected: nil},
		{name: "single unterminated", input: "just a title", expected: []string{"just a title"}},
		{
			name:     "mixed punctuation",
			input:    "First one. Second one!  Third one?",
			expected: []string{"First one.", "Second one!", "Third one?"},
		},
		{
			name:     "trailing text kept",
			input:    "Closed on Sunday. Open late on Friday",
			expected: []string{"Closed on Sunday.", "Open late on Friday"},
		},
		{
			name:     "newlines collapsed",
			input:    "Line one\ncontinues here.\n\nNext paragraph.",
			expected: []string{"Line one continues here.", "Next paragraph."},
		},
		{
			name:     "repeated punctuation",
			input:    "Really?! Yes...",
			expected: []string{"Really?!", "Yes..."},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(testCase.expected, SplitSentences(testCase.input))
		})
	}
}

func TestTerms(t *testing.T) {
	assert := require.New(t)

	assert.Equal([]string{"many", "vacation", "days", "2024"}, Terms("How many vacation days in 2024?"))
	assert.Equal([]string{"café", "opens"}, Terms("Café opens"))
	assert.Empty(Terms("what is it?"))
	assert.True(IsStopWord("The"))
	assert.False(IsStopWord("refund"))
}
