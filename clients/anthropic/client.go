package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"henbot/clients"
	"henbot/core"
)

const defaultMaxTokens = 1024

// AnthropicClient implements the clients.LLMClient interface
type AnthropicClient struct {
	sdkClient anthropic.Client
}

func NewAnthropicClient(apiKey string) clients.LLMClient {
	return &AnthropicClient{
		sdkClient: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (c *AnthropicClient) CreateCompletion(
	ctx context.Context,
	req clients.CompletionRequest,
) (*clients.CompletionResult, error) {
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = core.GetDefaultModel()
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  mapPromptMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.sdkClient.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("completion request: %w", clients.ErrRateLimited)
		}
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &clients.CompletionResult{
		Text:         strings.TrimSpace(text.String()),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		Model:        string(model),
	}, nil
}

func mapPromptMessages(messages []clients.PromptMessage) []anthropic.MessageParam {
	mapped := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case clients.PromptRoleAssistant:
			mapped = append(mapped, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			mapped = append(mapped, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return mapped
}
