package validation

import (
	"strings"
	"testing"

	"github.com/meghashyamc/docquery/logger"
	"github.com/stretchr/testify/require"
)

type uploadInput struct {
	Filename string `json:"filename" validate:"valid_filename"`
}

type questionInput struct {
	Question string `json:"question" validate:"valid_question,max=4000"`
}

func TestValidateFilename(t *testing.T) {
	assert := require.New(t)
	validator, err := New(logger.Discard())
	assert.NoError(err)

	testCases := []struct {
		name     string
		filename string
		valid    bool
	}{
		{name: "plain text file", filename: "notes.txt", valid: true},
		{name: "name with spaces", filename: "annual report 2024.md", valid: true},
		{name: "no extension", filename: "README", valid: true},
		{name: "empty", filename: "", valid: false},
		{name: "blank", filename: "   ", valid: false},
		{name: "dot", filename: ".", valid: false},
		{name: "dot dot", filename: "..", valid: false},
		{name: "hidden file", filename: ".env", valid: false},
		{name: "nested path", filename: "a/b.txt", valid: false},
		{name: "windows separator", filename: `a\b.txt`, valid: false},
		{name: "null byte", filename: "bad\x00.txt", valid: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := validator.Validate(uploadInput{Filename: testCase.filename})
			if testCase.valid {
				assert.NoError(err)
				return
			}
			assert.ErrorIs(err, ErrInvalidFilename)
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	assert := require.New(t)
	validator, err := New(logger.Discard())
	assert.NoError(err)

	assert.NoError(validator.Validate(questionInput{Question: "What is the refund policy?"}))
	assert.ErrorIs(validator.Validate(questionInput{Question: ""}), ErrInvalidQuestion)
	assert.ErrorIs(validator.Validate(questionInput{Question: " \n\t"}), ErrInvalidQuestion)

	err = validator.Validate(questionInput{Question: strings.Repeat("a", 4001)})
	assert.EqualError(err, "value or length of field 'question' is not in the expected range")
}
