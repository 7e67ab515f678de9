package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/model-router/internal/types"
)

// anthropicDefaultMaxTokens is applied when the caller supplies no limit;
// the Anthropic API requires max_tokens on every request.
const anthropicDefaultMaxTokens = 1024

// AnthropicConfig holds the Anthropic connection settings.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// AnthropicGateway completes requests against the Anthropic Messages API.
type AnthropicGateway struct {
	client *anthropic.Client
	logger *logrus.Logger
}

// NewAnthropicGateway creates a gateway from the given config.
func NewAnthropicGateway(config AnthropicConfig, logger *logrus.Logger) *AnthropicGateway {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicGateway{
		client: &client,
		logger: logger,
	}
}

// Complete sends the message history to the model named by the provider id.
// System messages are lifted out of the history since Claude takes them as a
// separate parameter.
func (g *AnthropicGateway) Complete(ctx context.Context, provider string, messages []types.Message, params Params) (string, error) {
	_, model, _ := strings.Cut(provider, "/")

	var system string
	var converted []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = msg.Content
		case "assistant":
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    converted,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(params.Temperature),
	}

	if system != "" {
		req.System = []anthropic.TextBlockParam{
			{Text: system, Type: "text"},
		}
	}

	resp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		g.logger.WithError(err).WithField("model", model).Error("Anthropic API call failed")
		return "", fmt.Errorf("anthropic api call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content for model %s", model)
	}
	return text.String(), nil
}
