// Package parser extracts Q&A rows from uploaded spreadsheet files. Header
// matching is case-insensitive; a file without both a Question and an Answer
// column is rejected before any row is produced.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qachat/qa-backend/internal/entity"
)

const (
	questionColumn = "question"
	answerColumn   = "answer"
)

// Parse dispatches on the file extension and returns the raw rows in file
// order. Row line numbers are physical row numbers (header is row 1) so
// validation reports point at the actual spreadsheet row.
func Parse(filename string, data []byte) ([]entity.QARow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(data)
	case ".xlsx":
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s (allowed: csv, xlsx)", entity.ErrInvalidExtension, filepath.Ext(filename))
	}
}

// locateColumns finds the Question and Answer column indexes in a header row.
func locateColumns(header []string) (qCol, aCol int, err error) {
	qCol, aCol = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case questionColumn:
			if qCol == -1 {
				qCol = i
			}
		case answerColumn:
			if aCol == -1 {
				aCol = i
			}
		}
	}
	if qCol == -1 || aCol == -1 {
		return 0, 0, entity.ErrMissingColumns
	}
	return qCol, aCol, nil
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
