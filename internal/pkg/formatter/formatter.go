package formatter

import (
	"fmt"

	"github.com/qachat/qa-backend/internal/entity"
)

const reportTitle = "Knowledge base report"

// Formatter renders a plain-text knowledge-base report into a downloadable
// document.
type Formatter interface {
	Format(plainText string) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ReportFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
