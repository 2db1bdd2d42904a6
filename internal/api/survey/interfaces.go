package survey

import (
	"context"

	"github.com/dominiq/maturity-backend/internal/entity"
)

type SurveyUsecase interface {
	HandleTurn(ctx context.Context, req entity.TurnRequest) (*entity.TurnResult, error)
	GetProgress(ctx context.Context, sessionID string) (*entity.SurveyProgress, error)
	GetResult(ctx context.Context, sessionID string) (*entity.SurveyResult, error)
	ListQuestions(ctx context.Context, filter entity.QuestionFilter) ([]entity.Question, error)
}
