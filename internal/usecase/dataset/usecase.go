package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/normalizer"
	"github.com/qachat/qa-backend/internal/pkg/formatter"
	"github.com/qachat/qa-backend/internal/repository"
)

// DatasetUsecase implements dataset ingestion and management.
type DatasetUsecase struct {
	datasetRepo repository.DatasetRepository
	entryRepo   repository.EntryRepository
	embedder    Embedder
	index       VectorIndex
	formatters  *formatter.Factory
	logger      *zap.Logger
}

func NewUsecase(
	datasetRepo repository.DatasetRepository,
	entryRepo repository.EntryRepository,
	embedder Embedder,
	index VectorIndex,
	logger *zap.Logger,
) *DatasetUsecase {
	return &DatasetUsecase{
		datasetRepo: datasetRepo,
		entryRepo:   entryRepo,
		embedder:    embedder,
		index:       index,
		formatters:  formatter.NewFactory(),
		logger:      logger,
	}
}

// Ingest turns parsed upload rows into a dataset. Malformed rows are skipped
// and reported, never fatal for the file. Persistence is all-or-nothing at
// dataset granularity; the index is only updated after the transaction
// commits, so a failed ingest leaves neither rows nor vectors behind.
func (uc *DatasetUsecase) Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestReport, error) {
	accepted, skipped := validateRows(req.Rows)

	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptyDataset, req.Filename)
	}

	ctxzap.Info(ctx, "ingesting dataset",
		zap.String("filename", req.Filename),
		zap.Int("accepted", len(accepted)),
		zap.Int("skipped", len(skipped)),
	)

	normalized := make([]string, len(accepted))
	for i, row := range accepted {
		normalized[i] = normalizer.Normalize(row.Question)
	}

	vectors, err := uc.embedder.EmbedBatch(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embed questions: %w", err)
	}

	ds := &entity.Dataset{
		ID:         uuid.New().String(),
		Filename:   req.Filename,
		UploadedAt: time.Now().UTC(),
		RowCount:   len(accepted),
	}

	entries := make([]*entity.QAEntry, len(accepted))
	for i, row := range accepted {
		entries[i] = &entity.QAEntry{
			ID:                 uuid.New().String(),
			DatasetID:          ds.ID,
			Question:           row.Question,
			QuestionNormalized: normalized[i],
			Answer:             row.Answer,
			Embedding:          vectors[i],
		}
	}

	if err := uc.datasetRepo.SaveDataset(ctx, ds, entries); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}

	for _, e := range entries {
		uc.index.Add(e.ID, e.Embedding)
	}

	ctxzap.Info(ctx, "dataset ingested",
		zap.String("dataset_id", ds.ID),
		zap.Int("entry_count", len(entries)),
	)

	return &entity.IngestReport{
		Dataset:  ds,
		Accepted: len(accepted),
		Skipped:  skipped,
	}, nil
}

// validateRows splits raw rows into accepted rows and per-row rejections
// under the skip-and-report policy.
func validateRows(rows []entity.QARow) ([]entity.QARow, []entity.RowError) {
	var accepted []entity.QARow
	var skipped []entity.RowError

	for _, row := range rows {
		switch {
		case strings.TrimSpace(row.Question) == "":
			skipped = append(skipped, entity.RowError{Line: row.Line, Reason: entity.ErrEmptyQuestion.Error()})
		case strings.TrimSpace(row.Answer) == "":
			skipped = append(skipped, entity.RowError{Line: row.Line, Reason: entity.ErrEmptyAnswer.Error()})
		default:
			accepted = append(accepted, row)
		}
	}

	return accepted, skipped
}

// ListDatasets returns all datasets, newest first.
func (uc *DatasetUsecase) ListDatasets(ctx context.Context) ([]*entity.Dataset, error) {
	return uc.datasetRepo.ListDatasets(ctx)
}

// GetDataset returns one dataset.
func (uc *DatasetUsecase) GetDataset(ctx context.Context, id string) (*entity.Dataset, error) {
	return uc.datasetRepo.GetDataset(ctx, id)
}

// DeleteDataset removes a dataset, its entries and their index vectors, so no
// orphaned vectors survive the deletion.
func (uc *DatasetUsecase) DeleteDataset(ctx context.Context, id string) error {
	removed, err := uc.datasetRepo.DeleteDataset(ctx, id)
	if err != nil {
		return err
	}

	for _, entryID := range removed {
		uc.index.Remove(entryID)
	}

	ctxzap.Info(ctx, "dataset deleted",
		zap.String("dataset_id", id),
		zap.Int("removed_vectors", len(removed)),
	)

	return nil
}

// RebuildIndex reconstructs the similarity index from the backing store. Run
// at startup; the index is a cache over qa_entries, never a source of truth.
func (uc *DatasetUsecase) RebuildIndex(ctx context.Context) error {
	entries, err := uc.entryRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	ids := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		vectors[i] = e.Embedding
	}

	uc.index.Rebuild(ids, vectors)

	ctxzap.Info(ctx, "similarity index rebuilt", zap.Int("entry_count", len(entries)))

	return nil
}

// ExportDataset renders a dataset's Q&A pairs as a downloadable report.
func (uc *DatasetUsecase) ExportDataset(ctx context.Context, id string, format entity.ReportFormat) ([]byte, string, string, error) {
	ds, err := uc.datasetRepo.GetDataset(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	entries, err := uc.entryRepo.ListByDataset(ctx, id)
	if err != nil {
		return nil, "", "", fmt.Errorf("list entries: %w", err)
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Source file: %s\nUploaded: %s\nEntries: %d\n\n",
		ds.Filename, ds.UploadedAt.Format(time.RFC3339), len(entries))
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. Q: %s\n   A: %s\n\n", i+1, e.Question, e.Answer)
	}

	data, err := f.Format(sb.String())
	if err != nil {
		return nil, "", "", fmt.Errorf("format report: %w", err)
	}

	filename := strings.TrimSuffix(ds.Filename, ".csv")
	filename = strings.TrimSuffix(filename, ".xlsx")
	filename += "_report" + f.FileExtension()

	return data, f.ContentType(), filename, nil
}
