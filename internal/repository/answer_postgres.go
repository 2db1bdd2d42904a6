package repository

import (
	"context"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SurveyAnswerRepository interface {
	UpsertAnswer(ctx context.Context, answer entity.SurveyAnswer) error
}

var _ SurveyAnswerRepository = &SurveyAnswerPostgres{}

// SurveyAnswerPostgres mirrors recorded answers into a relational table for reporting
type SurveyAnswerPostgres struct {
	db *pgxpool.Pool
}

func NewSurveyAnswerPostgres(db *pgxpool.Pool) *SurveyAnswerPostgres {
	return &SurveyAnswerPostgres{db: db}
}

// UpsertAnswer keeps one row per session and question, the latest answer wins
func (r *SurveyAnswerPostgres) UpsertAnswer(ctx context.Context, answer entity.SurveyAnswer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO survey_answers
		(session_id, question_id, option_id, answer, score, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, question_id) DO UPDATE
		SET option_id = EXCLUDED.option_id,
			answer = EXCLUDED.answer,
			score = EXCLUDED.score,
			answered_at = EXCLUDED.answered_at`,
		answer.SessionID,
		answer.QuestionID,
		answer.OptionID,
		answer.Answer,
		answer.Score,
		answer.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert survey answer: %w", err)
	}

	return nil
}
