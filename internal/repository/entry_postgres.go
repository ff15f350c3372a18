package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
)

// EntryRepository reads Q&A entries back out of the store. LoadAll feeds the
// similarity index rebuild at startup; the index is only ever a cache over
// these rows.
type EntryRepository interface {
	LoadAll(ctx context.Context) ([]*entity.QAEntry, error)
	GetByID(ctx context.Context, id string) (*entity.QAEntry, error)
	ListByDataset(ctx context.Context, datasetID string) ([]*entity.QAEntry, error)
}

var _ EntryRepository = &EntryPostgres{}

// EntryPostgres implements EntryRepository using PostgreSQL
type EntryPostgres struct {
	db *pgxpool.Pool
}

func NewEntryPostgres(db *pgxpool.Pool) *EntryPostgres {
	return &EntryPostgres{db: db}
}

const entryColumns = `id, dataset_id, question, question_normalized, answer, embedding`

// LoadAll returns every stored entry with its embedding, in insertion order.
func (r *EntryPostgres) LoadAll(ctx context.Context) ([]*entity.QAEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM qa_entries ORDER BY inserted_seq`)
	if err != nil {
		ctxzap.Error(ctx, "failed to load entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []*entity.QAEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetByID retrieves a single entry.
func (r *EntryPostgres) GetByID(ctx context.Context, id string) (*entity.QAEntry, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry ID: %w", err)
	}

	row := r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM qa_entries WHERE id = $1`,
		pgtype.UUID{Bytes: entryID, Valid: true})

	return scanEntry(row)
}

// ListByDataset returns a dataset's entries in insertion order.
func (r *EntryPostgres) ListByDataset(ctx context.Context, datasetID string) ([]*entity.QAEntry, error) {
	dsID, err := uuid.Parse(datasetID)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset ID: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM qa_entries WHERE dataset_id = $1 ORDER BY inserted_seq`,
		pgtype.UUID{Bytes: dsID, Valid: true})
	if err != nil {
		ctxzap.Error(ctx, "failed to list dataset entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []*entity.QAEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
