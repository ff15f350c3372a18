package dataset

import (
	"context"

	"github.com/qachat/qa-backend/internal/entity"
)

type DatasetUsecase interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestReport, error)
	ListDatasets(ctx context.Context) ([]*entity.Dataset, error)
	GetDataset(ctx context.Context, id string) (*entity.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
	ExportDataset(ctx context.Context, id string, format entity.ReportFormat) (data []byte, contentType, filename string, err error)
}
