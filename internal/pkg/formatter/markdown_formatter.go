package formatter

import "strings"

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(text string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(reportTitle)
	sb.WriteString("\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
