package parser

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/qachat/qa-backend/internal/entity"
)

func parseXLSX(data []byte) ([]entity.QARow, error) {
	wb, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read xlsx: %v", entity.ErrInvalidFile, err)
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, entity.ErrMissingColumns
	}

	// Q&A uploads are single-table files: only the first sheet is read.
	sheetRows := sheets[0].Rows()
	if len(sheetRows) == 0 {
		return nil, entity.ErrMissingColumns
	}

	header := make([]string, 0, len(sheetRows[0].Cells()))
	for _, cell := range sheetRows[0].Cells() {
		header = append(header, cell.GetFormattedValue())
	}

	qCol, aCol, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []entity.QARow
	for i, row := range sheetRows[1:] {
		cells := row.Cells()
		values := make([]string, 0, len(cells))
		for _, cell := range cells {
			values = append(values, cell.GetFormattedValue())
		}
		rows = append(rows, entity.QARow{
			Line:     i + 2,
			Question: cellAt(values, qCol),
			Answer:   cellAt(values, aCol),
		})
	}

	return rows, nil
}
