package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/model-router/internal/types"
)

// OpenAIConfig holds the OpenAI connection settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	OrgID   string `yaml:"org_id"`
}

// OpenAIGateway completes requests against the OpenAI chat completion API.
type OpenAIGateway struct {
	client *openai.Client
	logger *logrus.Logger
}

// NewOpenAIGateway creates a gateway from the given config.
func NewOpenAIGateway(config OpenAIConfig, logger *logrus.Logger) *OpenAIGateway {
	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.OrgID != "" {
		clientConfig.OrgID = config.OrgID
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

// Complete sends the message history to the model named by the provider id
// ("openai/gpt-4o" calls model "gpt-4o") and returns the first choice.
func (g *OpenAIGateway) Complete(ctx context.Context, provider string, messages []types.Message, params Params) (string, error) {
	_, model, _ := strings.Cut(provider, "/")

	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    converted,
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		g.logger.WithError(err).WithField("model", model).Error("OpenAI API call failed")
		return "", fmt.Errorf("openai api call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices for model %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}
