package entity

import (
	"fmt"
	"strconv"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

func (r MessageRole) Validate() error {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("unknown message role: %s", r)
	}
}

// SessionStatus is the lifecycle state of a survey session.
// A session without a stored state is implicitly UNINITIALIZED.
type SessionStatus string

const (
	SessionStatusUninitialized SessionStatus = "UNINITIALIZED"
	SessionStatusInProgress    SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted     SessionStatus = "COMPLETED"
)

type NextAction string

const (
	NextActionContinue NextAction = "CONTINUE"
	NextActionComplete NextAction = "COMPLETE"
	NextActionError    NextAction = "ERROR"
)

func (a NextAction) Validate() error {
	switch a {
	case NextActionContinue, NextActionComplete, NextActionError:
		return nil
	default:
		return fmt.Errorf("unknown next action: %s", a)
	}
}

type QuestionOption struct {
	ID    int64    `json:"id" yaml:"id"`
	Text  string   `json:"text" yaml:"text"`
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

type Question struct {
	ID       int64            `json:"id"`
	Text     string           `json:"text"`
	Options  []QuestionOption `json:"options"`
	Category *string          `json:"category,omitempty"`
}

type ConversationMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// SurveyState is everything a session carries between turns.
// Questions are snapshotted at initialization and never change afterwards.
type SurveyState struct {
	UserID             string                `json:"user_id"`
	Messages           []ConversationMessage `json:"messages"`
	Questions          []Question            `json:"questions"`
	CurrentQuestionIdx int                   `json:"current_question_idx"`
	Responses          map[string]string     `json:"responses"`
	Status             SessionStatus         `json:"status"`
}

// NewSurveyState creates the initial state for a session
func NewSurveyState(sessionID string, questions []Question) *SurveyState {
	if questions == nil {
		questions = []Question{}
	}

	return &SurveyState{
		UserID:             sessionID,
		Messages:           []ConversationMessage{},
		Questions:          questions,
		CurrentQuestionIdx: 0,
		Responses:          map[string]string{},
		Status:             SessionStatusInProgress,
	}
}

// LastQuestionIdx is the highest index CurrentQuestionIdx may take
func (s *SurveyState) LastQuestionIdx() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return len(s.Questions) - 1
}

// ResponseKey is the key under which the answer to a question is stored
func ResponseKey(questionID int64) string {
	return strconv.FormatInt(questionID, 10)
}

// SurveyPromptResponse is the structured reply the assistant is instructed to produce
type SurveyPromptResponse struct {
	LastQuestionID     *int64     `json:"last_question_id,omitempty"`
	LastQuestionOption *string    `json:"last_question_option,omitempty"`
	QuestionNumber     *int       `json:"question_number,omitempty"`
	TotalQuestions     *int       `json:"total_questions,omitempty"`
	AssistantMessage   string     `json:"assistant_message"`
	NextAction         NextAction `json:"next_action"`
}
