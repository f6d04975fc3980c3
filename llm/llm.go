package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
)

const (
	ProviderOpenAI     = "openai"
	ProviderExtractive = "extractive"
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingAPIKey   = errors.New("OPENAI_API_KEY is not set")
	ErrEmptyCompletion = errors.New("llm returned no answer")
)

// Passage is a piece of retrieved context handed to the answerer.
type Passage struct {
	Document string
	Chunk    int
	Text     string
	Score    float64
}

type Answerer interface {
	Answer(ctx context.Context, question string, passages []Passage) (string, error)
}

func New(logger logger.Logger, cfg *config.Config) (Answerer, error) {
	switch provider := strings.ToLower(cfg.GetLLMProvider()); provider {
	case ProviderOpenAI, "":
		return NewOpenAI(logger, cfg), nil
	case ProviderExtractive:
		return NewExtractive(), nil
	default:
		logger.Error("unsupported llm provider", "provider", provider)
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
