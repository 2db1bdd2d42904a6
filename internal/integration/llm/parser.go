package llm

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemasFS embed.FS

const replySchemaName = "survey_reply.json"

// Parser decodes assistant text into the structured survey reply.
// It never repairs or guesses: anything outside the contract is ErrProtocolViolation.
type Parser struct {
	schema *jsonschema.Schema
}

// NewParser compiles the embedded reply schema
func NewParser() (*Parser, error) {
	schemaData, err := schemasFS.ReadFile("schemas/survey_reply.schema.json")
	if err != nil {
		return nil, fmt.Errorf("read reply schema: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("unmarshal reply schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(replySchemaName, schemaDoc); err != nil {
		return nil, fmt.Errorf("add reply schema resource: %w", err)
	}

	schema, err := c.Compile(replySchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}

	return &Parser{schema: schema}, nil
}

type surveyReplyWire struct {
	LastQuestionID     json.RawMessage `json:"last_question_id"`
	LastQuestionOption *string         `json:"last_question_option"`
	QuestionNumber     *int            `json:"question_number"`
	TotalQuestions     *int            `json:"total_questions"`
	AssistantMessage   string          `json:"assistant_message"`
	NextAction         *string         `json:"next_action"`
}

// ParseStructured validates text against the reply schema and decodes it.
// An absent next_action means CONTINUE.
func (p *Parser) ParseStructured(text string) (*entity.SurveyPromptResponse, error) {
	raw := []byte(strings.TrimSpace(text))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty reply", entity.ErrProtocolViolation)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: reply is not a single JSON document", entity.ErrProtocolViolation)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocolViolation, err)
	}

	if err := p.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocolViolation, err)
	}

	var wire surveyReplyWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocolViolation, err)
	}

	lastQuestionID, err := parseQuestionID(wire.LastQuestionID)
	if err != nil {
		return nil, fmt.Errorf("%w: last_question_id: %v", entity.ErrProtocolViolation, err)
	}

	action := entity.NextActionContinue
	if wire.NextAction != nil {
		action = entity.NextAction(*wire.NextAction)
	}
	if err := action.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocolViolation, err)
	}

	return &entity.SurveyPromptResponse{
		LastQuestionID:     lastQuestionID,
		LastQuestionOption: wire.LastQuestionOption,
		QuestionNumber:     wire.QuestionNumber,
		TotalQuestions:     wire.TotalQuestions,
		AssistantMessage:   wire.AssistantMessage,
		NextAction:         action,
	}, nil
}

// parseQuestionID accepts an integer or a string of digits, the two shapes the schema allows
func parseQuestionID(raw json.RawMessage) (*int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var id int64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		id = parsed
	} else if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}

	return &id, nil
}

// PromptMessages prepends the survey instruction the parser's contract is described in
func (p *Parser) PromptMessages(questions []entity.Question, history []entity.ConversationMessage) ([]entity.ConversationMessage, error) {
	return WithSystemPrompt(questions, history)
}
