package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You answer questions about the user's uploaded documents. Use ONLY the provided sources.\n" +
	"Cite the sources you rely on with bracketed references like [1], [2].\n" +
	"If the sources do not contain the answer, say so plainly."

type OpenAIAnswerer struct {
	client      *openai.Client
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      logger.Logger
}

func NewOpenAI(logger logger.Logger, cfg *config.Config) *OpenAIAnswerer {
	apiKey := cfg.GetLLMAPIKey()
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, queries will fail until it is configured")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := cfg.GetLLMBaseURL(); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIAnswerer{
		client:      openai.NewClientWithConfig(clientConfig),
		apiKey:      apiKey,
		model:       cfg.GetLLMModel(),
		temperature: cfg.GetLLMTemperature(),
		maxTokens:   cfg.GetLLMMaxTokens(),
		timeout:     cfg.GetLLMTimeout(),
		logger:      logger,
	}
}

func (a *OpenAIAnswerer) Answer(ctx context.Context, question string, passages []Passage) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, passages)},
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		a.logger.Error("chat completion failed", "model", a.model, "err", err.Error())
		return "", fmt.Errorf("llm error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyCompletion
	}

	a.logger.Debug("chat completion finished", "model", a.model, "passages", len(passages), "used_tokens", resp.Usage.TotalTokens, "took", time.Since(start).String())
	return answer, nil
}

func buildUserPrompt(question string, passages []Passage) string {
	var b strings.Builder
	for i, passage := range passages {
		fmt.Fprintf(&b, "\n[Source %d] %s (part %d)\nText:\n%s\n", i+1, passage.Document, passage.Chunk+1, passage.Text)
	}
	if len(passages) == 0 {
		b.WriteString("\n(no sources)\n")
	}
	return fmt.Sprintf("Question: %s\n\nSources:\n%s\nRespond with citations like [1], [2].", question, b.String())
}
