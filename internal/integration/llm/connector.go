package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dominiq/maturity-backend/internal/config"
	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/dominiq/maturity-backend/internal/integration/common"
	pkghttp "github.com/dominiq/maturity-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ConversationHeader routes a completion to the assistant-side conversation of a session
const ConversationHeader = "saia-conversation-id"

type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, cfg.Retry.ToRetryPolicy(), logger),
		config:    cfg,
		logger:    logger,
	}
}

// Complete sends the full message history to the chat-completion endpoint
// and returns the raw assistant text
func (c *Connector) Complete(ctx context.Context, conversationID string, messages []entity.ConversationMessage) (string, error) {
	ctxzap.Info(ctx, "requesting chat completion",
		zap.String("model", c.config.Model),
		zap.Int("message_count", len(messages)),
	)

	req := &entity.LLMChatCompletionRequest{
		Model:    c.config.Model,
		Revision: c.config.Revision,
		Messages: toLLMMessages(messages),
	}

	var resp entity.LLMChatCompletionResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, req, &resp,
		pkghttp.WithHeader(ConversationHeader, conversationID),
	)
	if err != nil {
		return "", mapTransportError(ctx, err)
	}

	content, err := extractContent(&resp)
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "chat completion received", zap.Int("content_length", len(content)))

	return content, nil
}

func toLLMMessages(messages []entity.ConversationMessage) []entity.LLMChatMessage {
	out := make([]entity.LLMChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, entity.LLMChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// extractContent pulls choices[0].message.content out of a decoded response
func extractContent(resp *entity.LLMChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", entity.ErrMalformedUpstreamResponse)
	}

	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", fmt.Errorf("%w: choices[0].message.content is missing", entity.ErrMalformedUpstreamResponse)
	}

	return *msg.Content, nil
}

func mapTransportError(ctx context.Context, err error) error {
	// Caller went away, nothing to degrade to
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var decodeErr *pkghttp.DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("%w: %v", entity.ErrMalformedUpstreamResponse, err)
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		ctxzap.Warn(ctx, "chat completion rejected", zap.Int("status", httpErr.StatusCode))
		return fmt.Errorf("%w: %v", entity.ErrUpstreamUnavailable, err)
	}

	return fmt.Errorf("%w: %v", entity.ErrUpstreamUnavailable, err)
}
