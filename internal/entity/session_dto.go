package entity

import "time"

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatJSON     ResultFormat = "json"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatJSON, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type ChatRequest struct {
	SessionID    string  `json:"session_id"`
	InputText    string  `json:"input_text"`
	AxisID       *int64  `json:"axis_id,omitempty"`
	IndustryID   *int64  `json:"industry_id,omitempty"`
	Category     *string `json:"category,omitempty"`
	QuestionType *string `json:"question_type,omitempty"`
}

type ChatResponse struct {
	SessionID        string              `json:"session_id"`
	AssistantMessage ConversationMessage `json:"assistant_message"`
	Timestamp        string              `json:"timestamp"`
	Status           SessionStatus       `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type QuestionListResponse struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
}

// TurnRequest is one chat turn submitted to the survey engine
type TurnRequest struct {
	SessionID string
	InputText string
	Filter    QuestionFilter
}

// TurnResult is what the engine hands back for a turn.
// Degraded is set when the turn was discarded because of an LLM boundary failure.
type TurnResult struct {
	SessionID string
	Message   ConversationMessage
	Timestamp time.Time
	Status    SessionStatus
	Degraded  bool
}

// SurveyProgress is a read-only view over a stored survey state
type SurveyProgress struct {
	SessionID          string            `json:"session_id"`
	Status             SessionStatus     `json:"status"`
	CurrentQuestionIdx int               `json:"current_question_idx"`
	TotalQuestions     int               `json:"total_questions"`
	AnsweredQuestions  int               `json:"answered_questions"`
	Responses          map[string]string `json:"responses"`
	MessageCount       int               `json:"message_count"`
}

// SurveyResultItem pairs a catalog question with the answer given in the session
type SurveyResultItem struct {
	QuestionID int64   `json:"question_id"`
	Question   string  `json:"question"`
	Answer     *string `json:"answer,omitempty"`
}

type SurveyResult struct {
	SessionID string             `json:"session_id"`
	Status    SessionStatus      `json:"status"`
	Items     []SurveyResultItem `json:"items"`
}

// SurveyAnswer is a recorded answer mirrored to the relational answers table
type SurveyAnswer struct {
	SessionID  string
	QuestionID int64
	OptionID   *int64
	Answer     string
	Score      *float64
	AnsweredAt time.Time
}
