package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// ErrEmptyResponse is returned when the model answered without any content
var ErrEmptyResponse = errors.New("empty response from model")

// Config holds the completion endpoint settings and sampling parameters
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float64
	MaxTokens        int64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
	Timeout          time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a completion client; the SDK's own retries are
// disabled because callers apply their own retry policy
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = config.Timeout

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		// request paths resolve relative to the base, which must end in a slash
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/")+"/"))
	}

	logrus.WithFields(logrus.Fields{
		"base_url": config.BaseURL,
		"model":    config.Model,
	}).Debug("Created completion client")

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Complete sends prompt as a single user message and returns the reply text
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:            openai.F(c.config.Model),
		Temperature:      openai.F(c.config.Temperature),
		TopP:             openai.F(c.config.TopP),
		PresencePenalty:  openai.F(c.config.PresencePenalty),
		FrequencyPenalty: openai.F(c.config.FrequencyPenalty),
	}
	if c.config.MaxTokens > 0 {
		params.MaxTokens = openai.F(c.config.MaxTokens)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	logrus.WithFields(logrus.Fields{
		"model":         c.config.Model,
		"finish_reason": completion.Choices[0].FinishReason,
		"total_tokens":  completion.Usage.TotalTokens,
	}).Trace("Received completion")

	return content, nil
}
