package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector walks the catalog embedded in the system prompt and always
// answers with the first option. Used for local runs without an assistant.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, conversationID string, messages []entity.ConversationMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] requesting chat completion", zap.Int("message_count", len(messages)))

	questions := questionsFromPrompt(messages)
	turns := 0
	for _, msg := range messages {
		if msg.Role == entity.RoleUser {
			turns++
		}
	}

	reply := map[string]any{
		"total_questions": len(questions),
		"next_action":     entity.NextActionContinue,
	}

	answered := turns - 1
	if answered > 0 && answered <= len(questions) {
		q := questions[answered-1]
		reply["last_question_id"] = q.ID
		if len(q.Options) > 0 {
			reply["last_question_option"] = q.Options[0].Text
		}
	}

	switch {
	case len(questions) == 0:
		reply["assistant_message"] = "There is nothing to ask."
		reply["next_action"] = entity.NextActionComplete
	case answered >= len(questions):
		reply["question_number"] = len(questions)
		reply["assistant_message"] = "Thank you, the survey is complete."
		reply["next_action"] = entity.NextActionComplete
	default:
		q := questions[answered]
		reply["question_number"] = answered + 1
		reply["assistant_message"] = renderQuestion(answered+1, q)
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrMalformedUpstreamResponse, err)
	}

	ctxzap.Info(ctx, "[MOCK] chat completion received", zap.Int("content_length", len(payload)))
	return string(payload), nil
}

func renderQuestion(number int, q entity.Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question %d: %s", number, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, opt.Text)
	}
	return sb.String()
}

// questionsFromPrompt recovers the catalog from the QUESTIONS line of the system message
func questionsFromPrompt(messages []entity.ConversationMessage) []entity.Question {
	for _, msg := range messages {
		if msg.Role != entity.RoleSystem {
			continue
		}
		for _, line := range strings.Split(msg.Content, "\n") {
			raw, ok := strings.CutPrefix(line, "QUESTIONS = ")
			if !ok {
				continue
			}
			var questions []entity.Question
			if err := json.Unmarshal([]byte(raw), &questions); err == nil {
				return questions
			}
		}
	}
	return nil
}
