package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/config"
	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/dominiq/maturity-backend/internal/integration/common"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIConnector talks to any OpenAI-compatible chat-completion API through the official SDK
type OpenAIConnector struct {
	config config.LLMConnectorConfig
	client openai.Client
	logger *zap.Logger
}

func NewOpenAIConnector(cfg config.LLMConnectorConfig, logger *zap.Logger) *OpenAIConnector {
	httpClient := common.NewHTTPClient(cfg.HTTPClientConfig, cfg.Retry.ToRetryPolicy())

	// Retries belong to the shared transport so both providers follow one policy
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.Url),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.Token != "" {
		opts = append(opts, option.WithAPIKey(cfg.Token))
	}

	return &OpenAIConnector{
		config: cfg,
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

func (c *OpenAIConnector) Complete(ctx context.Context, conversationID string, messages []entity.ConversationMessage) (string, error) {
	ctxzap.Info(ctx, "requesting chat completion",
		zap.String("provider", string(config.LLMProviderOpenAI)),
		zap.String("model", c.config.Model),
		zap.Int("message_count", len(messages)),
	)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.config.Model),
		Messages: toOpenAIMessages(messages),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params,
		option.WithHeader(ConversationHeader, conversationID),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			ctxzap.Warn(ctx, "chat completion rejected", zap.Int("status", apiErr.StatusCode))
		}
		return "", fmt.Errorf("%w: %v", entity.ErrUpstreamUnavailable, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", entity.ErrMalformedUpstreamResponse)
	}

	msg := resp.Choices[0].Message
	if !msg.JSON.Content.Valid() {
		return "", fmt.Errorf("%w: choices[0].message.content is missing", entity.ErrMalformedUpstreamResponse)
	}

	content := msg.Content
	ctxzap.Info(ctx, "chat completion received", zap.Int("content_length", len(content)))

	return content, nil
}

func toOpenAIMessages(messages []entity.ConversationMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entity.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case entity.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
