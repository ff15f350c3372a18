package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/qachat/qa-backend/internal/entity"
)

func parseCSV(data []byte) ([]entity.QARow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, entity.ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", entity.ErrInvalidFile, err)
	}

	qCol, aCol, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []entity.QARow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv row: %v", entity.ErrInvalidFile, err)
		}
		line++
		rows = append(rows, entity.QARow{
			Line:     line,
			Question: cellAt(record, qCol),
			Answer:   cellAt(record, aCol),
		})
	}

	return rows, nil
}
