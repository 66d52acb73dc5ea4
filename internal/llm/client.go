package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxSentenceLen caps generated sentences so prompts stay readable on
// small screens.
const maxSentenceLen = 250

const systemPrompt = "You are an educational content creator who writes " +
	"fill-in-the-blank exercises. Produce a single natural sentence that " +
	"uses a given term in context and reinforces its meaning."

// Config holds the OpenAI client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client generates cloze sentences through the OpenAI chat API. It
// implements trainer.SentenceGenerator.
type Client struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a generator client. An empty API key is an error:
// the cloze trainer treats a missing generator explicitly, so the
// caller should pass nil instead of a client that cannot work.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: slog.Default(),
	}, nil
}

// Sentence asks the model for one natural sentence containing the term,
// using the card's definition as context. The term is left intact; the
// trainer does the blanking.
func (c *Client) Sentence(ctx context.Context, term, definition string) (string, error) {
	userPrompt := fmt.Sprintf(
		"Write a fill-in-the-blank sentence for the term: %s\n"+
			"Context from its definition: %s\n\n"+
			"Rules:\n"+
			"1. Exactly one sentence that naturally uses the term %q.\n"+
			"2. No explanation, introduction, bullet points, or quotation marks.\n"+
			"3. Do not blank the term out yourself.\n"+
			"4. Keep the sentence simple enough for language learners.\n"+
			"5. Respond with only the sentence.",
		term, definition, term,
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty completion response")
	}

	sentence := strings.TrimSpace(resp.Choices[0].Message.Content)
	if runes := []rune(sentence); len(runes) > maxSentenceLen {
		sentence = string(runes[:maxSentenceLen]) + "..."
	}

	c.logger.Debug("generated cloze sentence", "term", term, "len", len(sentence))
	return sentence, nil
}
