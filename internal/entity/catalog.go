package entity

import "fmt"

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFreeText       QuestionType = "free_text"
	QuestionTypeRating         QuestionType = "rating"
)

func (qt QuestionType) Validate() error {
	switch qt {
	case QuestionTypeMultipleChoice, QuestionTypeFreeText, QuestionTypeRating:
		return nil
	default:
		return fmt.Errorf("unknown question type: %s", qt)
	}
}

// QuestionFilter scopes the catalog. Nil fields are not applied.
type QuestionFilter struct {
	AxisID       *int64        `json:"axis_id,omitempty"`
	IndustryID   *int64        `json:"industry_id,omitempty"`
	Category     *string       `json:"category,omitempty"`
	QuestionType *QuestionType `json:"question_type,omitempty"`
}

func (f *QuestionFilter) Validate() error {
	if f.AxisID != nil && *f.AxisID <= 0 {
		return fmt.Errorf("%w: axis_id must be positive, got %d", ErrInvalidFilter, *f.AxisID)
	}
	if f.IndustryID != nil && *f.IndustryID <= 0 {
		return fmt.Errorf("%w: industry_id must be positive, got %d", ErrInvalidFilter, *f.IndustryID)
	}
	if f.QuestionType != nil {
		if err := f.QuestionType.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
	}
	return nil
}

// CatalogRow is a flat question/agent-response pair as produced by a catalog source.
// Response fields are nil for questions that have no agent responses yet.
type CatalogRow struct {
	QuestionID    int64
	QuestionOrder *int
	QuestionText  string
	Category      *string
	ResponseID    *int64
	ResponseText  *string
	Score         *float64
}
