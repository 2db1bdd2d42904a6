package formatter

import (
	"bytes"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(result *entity.SurveyResult) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(baseTitle)

	doc.AddParagraph().AddRun().AddText(summaryLine(result))

	for i, item := range result.Items {
		questionPar := doc.AddParagraph()
		questionPar.SetStyle("Heading2")
		questionPar.AddRun().AddText(fmt.Sprintf("%d. %s", i+1, item.Question))

		answerRun := doc.AddParagraph().AddRun()
		if item.Answer == nil {
			answerRun.Properties().SetItalic(true)
		}
		answerRun.AddText(answerText(item))
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
