package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CatalogRepository yields the flat question/response rows a catalog is aggregated from
type CatalogRepository interface {
	ListCatalogRows(ctx context.Context, filter entity.QuestionFilter) ([]entity.CatalogRow, error)
}

var _ CatalogRepository = &CatalogPostgres{}

// CatalogPostgres reads the maturity question tables owned by the CRUD service.
// Read-only: the tables are not migrated from here.
type CatalogPostgres struct {
	db     *pgxpool.Pool
	schema string
}

func NewCatalogPostgres(db *pgxpool.Pool, schema string) *CatalogPostgres {
	if schema == "" {
		schema = "public"
	}
	return &CatalogPostgres{
		db:     db,
		schema: schema,
	}
}

func (r *CatalogPostgres) ListCatalogRows(ctx context.Context, filter entity.QuestionFilter) ([]entity.CatalogRow, error) {
	query, args := r.buildQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog rows: %w", err)
	}
	defer rows.Close()

	var result []entity.CatalogRow
	for rows.Next() {
		var row entity.CatalogRow
		if err := rows.Scan(
			&row.QuestionID,
			&row.QuestionOrder,
			&row.QuestionText,
			&row.Category,
			&row.ResponseID,
			&row.ResponseText,
			&row.Score,
		); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	ctxzap.Debug(ctx, "catalog rows loaded", zap.Int("row_count", len(result)))

	return result, nil
}

func (r *CatalogPostgres) buildQuery(filter entity.QuestionFilter) (string, []any) {
	questions := pgx.Identifier{r.schema, "maturity_questions"}.Sanitize()
	responses := pgx.Identifier{r.schema, "maturity_agent_responses"}.Sanitize()

	var (
		where []string
		args  []any
	)
	addClause := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("mq.%s = $%d", column, len(args)))
	}

	if filter.AxisID != nil {
		addClause("axis_id", *filter.AxisID)
	}
	if filter.IndustryID != nil {
		addClause("industry_id", *filter.IndustryID)
	}
	if filter.Category != nil {
		addClause("category", *filter.Category)
	}
	if filter.QuestionType != nil {
		addClause("question_type", string(*filter.QuestionType))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT
		mq.maturity_question_id,
		mq.question_order,
		mq.question_text,
		mq.category,
		mar.maturity_agent_response_id,
		mar.response_text,
		CASE WHEN mar.maturity_agent_response_id IS NULL THEN NULL ELSE 0::double precision END
	FROM %s mq
	LEFT JOIN %s mar ON mar.maturity_question_id = mq.maturity_question_id`, questions, responses)

	if len(where) > 0 {
		sb.WriteString("\n\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString("\n\tORDER BY mq.maturity_question_id, mq.question_order, mar.maturity_agent_response_id")

	return sb.String(), args
}
