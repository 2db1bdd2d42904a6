package survey

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dominiq/maturity-backend/internal/entity"
)

// toTurnRequest converts a validated chat request into an engine turn
func toTurnRequest(req *entity.ChatRequest) entity.TurnRequest {
	filter := entity.QuestionFilter{
		AxisID:     req.AxisID,
		IndustryID: req.IndustryID,
		Category:   req.Category,
	}
	if req.QuestionType != nil {
		qt := entity.QuestionType(*req.QuestionType)
		filter.QuestionType = &qt
	}

	return entity.TurnRequest{
		SessionID: req.SessionID,
		InputText: req.InputText,
		Filter:    filter,
	}
}

func toChatResponse(result *entity.TurnResult) entity.ChatResponse {
	return entity.ChatResponse{
		SessionID:        result.SessionID,
		AssistantMessage: result.Message,
		Timestamp:        result.Timestamp.UTC().Format(time.RFC3339),
		Status:           result.Status,
	}
}

// filterFromQuery reads catalog filter parameters from a query string
func filterFromQuery(query url.Values) (entity.QuestionFilter, error) {
	var filter entity.QuestionFilter

	axisID, err := optionalInt64(query, "axis_id")
	if err != nil {
		return filter, err
	}
	filter.AxisID = axisID

	industryID, err := optionalInt64(query, "industry_id")
	if err != nil {
		return filter, err
	}
	filter.IndustryID = industryID

	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}

	if questionType := query.Get("question_type"); questionType != "" {
		qt := entity.QuestionType(questionType)
		filter.QuestionType = &qt
	}

	return filter, nil
}

func optionalInt64(query url.Values, name string) (*int64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", entity.ErrInvalidParameter, name, raw)
	}
	return &value, nil
}
