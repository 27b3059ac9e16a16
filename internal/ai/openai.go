package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClient) Classify(ctx context.Context, instruction, payload string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(payload),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(4000),
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices from openai", ErrEmptyResponse)
	}

	return ParseResult(response.Choices[0].Message.Content)
}
