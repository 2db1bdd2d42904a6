package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/dominiq/maturity-backend/internal/entity"
	"gopkg.in/yaml.v3"
)

var _ CatalogRepository = &CatalogFile{}

type catalogFileDocument struct {
	Questions []catalogFileQuestion `yaml:"questions"`
}

type catalogFileQuestion struct {
	ID         int64                   `yaml:"id"`
	Order      *int                    `yaml:"order"`
	Text       string                  `yaml:"text"`
	Category   *string                 `yaml:"category"`
	Type       string                  `yaml:"type"`
	AxisID     *int64                  `yaml:"axis_id"`
	IndustryID *int64                  `yaml:"industry_id"`
	Responses  []entity.QuestionOption `yaml:"responses"`
}

// CatalogFile serves the catalog from a YAML seed file. The file is read on every call.
type CatalogFile struct {
	path string
}

func NewCatalogFile(path string) *CatalogFile {
	return &CatalogFile{path: path}
}

func (r *CatalogFile) ListCatalogRows(ctx context.Context, filter entity.QuestionFilter) ([]entity.CatalogRow, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc catalogFileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", r.path, err)
	}

	var rows []entity.CatalogRow
	for _, q := range doc.Questions {
		if !matchesFilter(q, filter) {
			continue
		}

		base := entity.CatalogRow{
			QuestionID:    q.ID,
			QuestionOrder: q.Order,
			QuestionText:  q.Text,
			Category:      q.Category,
		}

		if len(q.Responses) == 0 {
			rows = append(rows, base)
			continue
		}

		for _, resp := range q.Responses {
			row := base
			id, text := resp.ID, resp.Text
			row.ResponseID = &id
			row.ResponseText = &text
			row.Score = resp.Score
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func matchesFilter(q catalogFileQuestion, filter entity.QuestionFilter) bool {
	if filter.AxisID != nil && (q.AxisID == nil || *q.AxisID != *filter.AxisID) {
		return false
	}
	if filter.IndustryID != nil && (q.IndustryID == nil || *q.IndustryID != *filter.IndustryID) {
		return false
	}
	if filter.Category != nil && (q.Category == nil || *q.Category != *filter.Category) {
		return false
	}
	if filter.QuestionType != nil && q.Type != string(*filter.QuestionType) {
		return false
	}
	return true
}
