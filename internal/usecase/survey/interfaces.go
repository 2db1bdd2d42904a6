package survey

import (
	"context"

	"github.com/dominiq/maturity-backend/internal/entity"
)

type LLMConnector interface {
	Complete(ctx context.Context, conversationID string, messages []entity.ConversationMessage) (string, error)
}

// SurveyProtocol frames the conversation for the assistant and decodes its structured replies
type SurveyProtocol interface {
	PromptMessages(questions []entity.Question, history []entity.ConversationMessage) ([]entity.ConversationMessage, error)
	ParseStructured(text string) (*entity.SurveyPromptResponse, error)
}
