package survey

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/dominiq/maturity-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// CatalogLoader turns flat catalog rows into ordered questions with de-duplicated options
type CatalogLoader struct {
	source repository.CatalogRepository
}

func NewCatalogLoader(source repository.CatalogRepository) *CatalogLoader {
	return &CatalogLoader{source: source}
}

type questionAggregate struct {
	question entity.Question
	order    *int
	seen     map[int64]struct{}
}

// Load returns the questions matching filter. An empty catalog is not an error.
func (l *CatalogLoader) Load(ctx context.Context, filter entity.QuestionFilter) ([]entity.Question, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, err := l.source.ListCatalogRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list catalog rows: %w", err)
	}

	questions := aggregateCatalog(rows)

	ctxzap.Info(ctx, "question catalog loaded",
		zap.Int("row_count", len(rows)),
		zap.Int("question_count", len(questions)),
	)

	return questions, nil
}

// aggregateCatalog groups rows by question id. The first row of a question fixes its text,
// category and order, the first row of a response id fixes the option.
func aggregateCatalog(rows []entity.CatalogRow) []entity.Question {
	byID := make(map[int64]*questionAggregate)
	var aggregates []*questionAggregate

	for _, row := range rows {
		agg, ok := byID[row.QuestionID]
		if !ok {
			agg = &questionAggregate{
				question: entity.Question{
					ID:       row.QuestionID,
					Text:     row.QuestionText,
					Options:  []entity.QuestionOption{},
					Category: row.Category,
				},
				order: row.QuestionOrder,
				seen:  make(map[int64]struct{}),
			}
			byID[row.QuestionID] = agg
			aggregates = append(aggregates, agg)
		}

		if row.ResponseID == nil || row.ResponseText == nil {
			continue
		}
		if _, dup := agg.seen[*row.ResponseID]; dup {
			continue
		}
		agg.seen[*row.ResponseID] = struct{}{}
		agg.question.Options = append(agg.question.Options, entity.QuestionOption{
			ID:    *row.ResponseID,
			Text:  *row.ResponseText,
			Score: row.Score,
		})
	}

	slices.SortStableFunc(aggregates, func(a, b *questionAggregate) int {
		if c := cmp.Compare(a.question.ID, b.question.ID); c != 0 {
			return c
		}
		return compareOrder(a.order, b.order)
	})

	questions := make([]entity.Question, 0, len(aggregates))
	for _, agg := range aggregates {
		slices.SortStableFunc(agg.question.Options, func(a, b entity.QuestionOption) int {
			return cmp.Compare(a.ID, b.ID)
		})
		questions = append(questions, agg.question)
	}

	return questions
}

// compareOrder sorts missing order values last
func compareOrder(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}
