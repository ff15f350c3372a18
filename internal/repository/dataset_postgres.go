package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
)

// DatasetRepository persists datasets and their Q&A entries. SaveDataset is
// all-or-nothing at dataset granularity: a failure mid-insert leaves no
// partially visible dataset behind.
type DatasetRepository interface {
	SaveDataset(ctx context.Context, dataset *entity.Dataset, entries []*entity.QAEntry) error
	ListDatasets(ctx context.Context) ([]*entity.Dataset, error)
	GetDataset(ctx context.Context, id string) (*entity.Dataset, error)
	DeleteDataset(ctx context.Context, id string) (removedEntryIDs []string, err error)
}

var _ DatasetRepository = &DatasetPostgres{}

// DatasetPostgres implements DatasetRepository using PostgreSQL
type DatasetPostgres struct {
	db *pgxpool.Pool
}

func NewDatasetPostgres(db *pgxpool.Pool) *DatasetPostgres {
	return &DatasetPostgres{db: db}
}

// SaveDataset inserts the dataset record and all its entries in one
// transaction. Entries are written with CopyFrom for throughput.
func (r *DatasetPostgres) SaveDataset(ctx context.Context, dataset *entity.Dataset, entries []*entity.QAEntry) error {
	datasetID, err := uuid.Parse(dataset.ID)
	if err != nil {
		return fmt.Errorf("parse dataset ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO datasets (id, filename, uploaded_at, row_count) VALUES ($1, $2, $3, $4)`,
		pgtype.UUID{Bytes: datasetID, Valid: true},
		dataset.Filename,
		dataset.UploadedAt,
		int32(dataset.RowCount),
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to insert dataset", zap.Error(err))
		return fmt.Errorf("insert dataset: %w", err)
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		entryID, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("parse entry ID: %w", err)
		}

		rows = append(rows, []interface{}{
			pgtype.UUID{Bytes: entryID, Valid: true},
			pgtype.UUID{Bytes: datasetID, Valid: true},
			e.Question,
			e.QuestionNormalized,
			e.Answer,
			e.Embedding,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"qa_entries"},
		[]string{"id", "dataset_id", "question", "question_normalized", "answer", "embedding"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to batch insert entries", zap.Error(err))
		return fmt.Errorf("insert entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListDatasets returns all datasets, newest first.
func (r *DatasetPostgres) ListDatasets(ctx context.Context) ([]*entity.Dataset, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, filename, uploaded_at, row_count FROM datasets ORDER BY uploaded_at DESC`)
	if err != nil {
		ctxzap.Error(ctx, "failed to list datasets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var datasets []*entity.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	return datasets, rows.Err()
}

// GetDataset retrieves a dataset by its ID.
func (r *DatasetPostgres) GetDataset(ctx context.Context, id string) (*entity.Dataset, error) {
	datasetID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed dataset id %q", entity.ErrInvalidParameter, id)
	}

	row := r.db.QueryRow(ctx,
		`SELECT id, filename, uploaded_at, row_count FROM datasets WHERE id = $1`,
		pgtype.UUID{Bytes: datasetID, Valid: true})

	ds, err := scanDataset(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, entity.ErrDatasetNotFound
		}
		ctxzap.Error(ctx, "failed to get dataset", zap.Error(err))
		return nil, err
	}

	return ds, nil
}

// DeleteDataset removes a dataset; its entries go with it via ON DELETE
// CASCADE. The removed entry ids are returned so the caller can evict their
// vectors from the similarity index.
func (r *DatasetPostgres) DeleteDataset(ctx context.Context, id string) ([]string, error) {
	datasetID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed dataset id %q", entity.ErrInvalidParameter, id)
	}
	pgID := pgtype.UUID{Bytes: datasetID, Valid: true}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id FROM qa_entries WHERE dataset_id = $1`, pgID)
	if err != nil {
		ctxzap.Error(ctx, "failed to list dataset entries", zap.Error(err))
		return nil, err
	}

	var entryIDs []string
	for rows.Next() {
		var entryID pgtype.UUID
		if err := rows.Scan(&entryID); err != nil {
			rows.Close()
			return nil, err
		}
		entryIDs = append(entryIDs, uuid.UUID(entryID.Bytes).String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, pgID)
	if err != nil {
		ctxzap.Error(ctx, "failed to delete dataset", zap.Error(err))
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, entity.ErrDatasetNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return entryIDs, nil
}
