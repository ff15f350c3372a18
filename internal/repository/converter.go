package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/qachat/qa-backend/internal/entity"
)

func scanDataset(row pgx.Row) (*entity.Dataset, error) {
	var (
		id       pgtype.UUID
		ds       entity.Dataset
		rowCount int32
	)
	if err := row.Scan(&id, &ds.Filename, &ds.UploadedAt, &rowCount); err != nil {
		return nil, err
	}
	ds.ID = uuid.UUID(id.Bytes).String()
	ds.RowCount = int(rowCount)
	return &ds, nil
}

func scanEntry(row pgx.Row) (*entity.QAEntry, error) {
	var (
		id        pgtype.UUID
		datasetID pgtype.UUID
		e         entity.QAEntry
	)
	if err := row.Scan(&id, &datasetID, &e.Question, &e.QuestionNormalized, &e.Answer, &e.Embedding); err != nil {
		return nil, err
	}
	e.ID = uuid.UUID(id.Bytes).String()
	e.DatasetID = uuid.UUID(datasetID.Bytes).String()
	return &e, nil
}
