package llm

import (
	"encoding/json"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
)

const surveyPromptTemplate = `You are a maturity survey assistant. Introduce yourself and ask the questions one by one.

QUESTIONS = %s

Guidelines:
- Present one question at a time from QUESTIONS, in the given order
- Show the options numbered, 1 being the lowest maturity
- Track progress (%d total questions)
- Be conversational and friendly
- When the user picks an option, report the question id and the exact option text you recorded

IMPORTANT: Always respond with a single JSON object and nothing else:
{
    "last_question_id": <id of the question the user just answered, or null>,
    "last_question_option": "<exact text of the chosen option, or null>",
    "question_number": <number of the question you are asking now>,
    "total_questions": %d,
    "assistant_message": "<your conversational response>",
    "next_action": "<CONTINUE|COMPLETE|ERROR>"
}`

// BuildSurveyPrompt renders the system instruction that carries the question catalog
func BuildSurveyPrompt(questions []entity.Question) (string, error) {
	if questions == nil {
		questions = []entity.Question{}
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}

	return fmt.Sprintf(surveyPromptTemplate, payload, len(questions), len(questions)), nil
}

// WithSystemPrompt prepends the survey instruction to the conversation history
func WithSystemPrompt(questions []entity.Question, history []entity.ConversationMessage) ([]entity.ConversationMessage, error) {
	prompt, err := BuildSurveyPrompt(questions)
	if err != nil {
		return nil, err
	}

	messages := make([]entity.ConversationMessage, 0, len(history)+1)
	messages = append(messages, entity.ConversationMessage{Role: entity.RoleSystem, Content: prompt})
	messages = append(messages, history...)
	return messages, nil
}
