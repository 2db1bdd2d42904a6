package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dominiq/maturity-backend/internal/entity"
)

const testCatalogYAML = `questions:
  - id: 2
    order: 1
    text: "How are deployments done?"
    category: delivery
    type: multiple_choice
    axis_id: 1
    responses:
      - id: 21
        text: "Manually"
      - id: 22
        text: "Fully automated"
        score: 4
  - id: 1
    order: 2
    text: "Is there a security policy?"
    category: security
    type: multiple_choice
    axis_id: 1
    industry_id: 7
  - id: 3
    text: "Describe your data platform"
    type: free_text
    axis_id: 2
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestCatalogFile_ListCatalogRows(t *testing.T) {
	repo := NewCatalogFile(writeCatalog(t, testCatalogYAML))

	axis := int64(1)
	rows, err := repo.ListCatalogRows(context.Background(), entity.QuestionFilter{AxisID: &axis})
	if err != nil {
		t.Fatalf("ListCatalogRows: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}

	if rows[0].QuestionID != 2 || *rows[0].ResponseID != 21 || *rows[0].ResponseText != "Manually" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Score == nil || *rows[1].Score != 4 {
		t.Errorf("expected score on second row: %+v", rows[1])
	}
	if rows[2].QuestionID != 1 || rows[2].ResponseID != nil {
		t.Errorf("question without responses must yield a bare row: %+v", rows[2])
	}
}

func TestCatalogFile_Filters(t *testing.T) {
	repo := NewCatalogFile(writeCatalog(t, testCatalogYAML))

	industry := int64(7)
	category := "delivery"
	freeText := entity.QuestionTypeFreeText
	missingAxis := int64(99)

	tests := []struct {
		name    string
		filter  entity.QuestionFilter
		wantIDs []int64
	}{
		{"no filter", entity.QuestionFilter{}, []int64{2, 2, 1, 3}},
		{"industry", entity.QuestionFilter{IndustryID: &industry}, []int64{1}},
		{"category", entity.QuestionFilter{Category: &category}, []int64{2, 2}},
		{"question type", entity.QuestionFilter{QuestionType: &freeText}, []int64{3}},
		{"unknown axis", entity.QuestionFilter{AxisID: &missingAxis}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.ListCatalogRows(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListCatalogRows: %v", err)
			}
			if len(rows) != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.wantIDs))
			}
			for i, row := range rows {
				if row.QuestionID != tt.wantIDs[i] {
					t.Errorf("row %d question id = %d, want %d", i, row.QuestionID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestCatalogFile_Errors(t *testing.T) {
	if _, err := NewCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")).ListCatalogRows(context.Background(), entity.QuestionFilter{}); err == nil {
		t.Error("expected error for missing file")
	}

	broken := writeCatalog(t, "questions: [\n")
	if _, err := NewCatalogFile(broken).ListCatalogRows(context.Background(), entity.QuestionFilter{}); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestCatalogPostgres_BuildQuery(t *testing.T) {
	repo := NewCatalogPostgres(nil, "maturity")

	axis := int64(3)
	qt := entity.QuestionTypeRating
	query, args := repo.buildQuery(entity.QuestionFilter{AxisID: &axis, QuestionType: &qt})

	if len(args) != 2 || args[0] != int64(3) || args[1] != "rating" {
		t.Fatalf("unexpected args: %v", args)
	}
	for _, want := range []string{
		`"maturity"."maturity_questions" mq`,
		`"maturity"."maturity_agent_responses" mar`,
		"mq.axis_id = $1 AND mq.question_type = $2",
		"ORDER BY mq.maturity_question_id, mq.question_order",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query does not contain %q:\n%s", want, query)
		}
	}
}
