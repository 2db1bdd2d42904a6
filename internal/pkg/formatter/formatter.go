package formatter

import (
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
)

const (
	baseTitle        = "Maturity survey results"
	unansweredAnswer = "(not answered)"
)

type Formatter interface {
	Format(result *entity.SurveyResult) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatJSON:
		return NewJSONFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func answerText(item entity.SurveyResultItem) string {
	if item.Answer == nil {
		return unansweredAnswer
	}
	return *item.Answer
}

func summaryLine(result *entity.SurveyResult) string {
	answered := 0
	for _, item := range result.Items {
		if item.Answer != nil {
			answered++
		}
	}
	return fmt.Sprintf("Session %s, status %s, %d of %d questions answered",
		result.SessionID, result.Status, answered, len(result.Items))
}
