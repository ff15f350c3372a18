package dataset

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/parser"
	"github.com/qachat/qa-backend/internal/pkg/logger"
	"github.com/qachat/qa-backend/internal/pkg/response"
	"github.com/qachat/qa-backend/internal/pkg/validator"
)

type Handler struct {
	usecase   DatasetUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(
	usecase DatasetUsecase,
	cfg config.FileUploadConfig,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// UploadDataset handles POST /datasets
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDataset")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or size too large")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		ctxzap.Warn(ctx, "no file provided")
		response.Error(w, http.StatusBadRequest, "a dataset file is required")
		return
	}
	fh := files[0]

	if err := h.validator.ValidateUpload(fh); err != nil {
		ctxzap.Warn(ctx, "upload validation failed", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		ctxzap.Error(ctx, "failed to open uploaded file", zap.Error(err))
		response.Error(w, http.StatusBadRequest, entity.ErrInvalidFile.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		ctxzap.Error(ctx, "failed to read uploaded file", zap.Error(err))
		response.Error(w, http.StatusBadRequest, entity.ErrInvalidFile.Error())
		return
	}

	filename := validator.SanitizeFilename(fh.Filename)

	// Column validation failures surface here, before any row is processed.
	rows, err := parser.Parse(filename, data)
	if err != nil {
		ctxzap.Warn(ctx, "failed to parse dataset file",
			zap.String("filename", filename), zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctxzap.Info(ctx, "dataset parsed",
		zap.String("filename", filename),
		zap.Int("row_count", len(rows)),
	)

	report, err := h.usecase.Ingest(ctx, &entity.IngestRequest{
		Filename: filename,
		Rows:     rows,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, report)
}

// ListDatasets handles GET /datasets
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDatasets")

	datasets, err := h.usecase.ListDatasets(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if datasets == nil {
		datasets = []*entity.Dataset{}
	}

	response.Success(w, &entity.ListDatasetsResponse{Datasets: datasets})
}

// GetDataset handles GET /datasets/{dataset_id}
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("dataset_id", datasetID),
		zap.String("action", "GetDataset"),
	)

	ds, err := h.usecase.GetDataset(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, ds)
}

// DeleteDataset handles DELETE /datasets/{dataset_id}
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("dataset_id", datasetID),
		zap.String("action", "DeleteDataset"),
	)

	if err := h.usecase.DeleteDataset(ctx, datasetID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "dataset deleted")
	response.Success(w, &entity.DeleteDatasetResponse{Status: "deleted"})
}

// ExportDataset handles GET /datasets/{dataset_id}/export?format=md|pdf
func (h *Handler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "dataset_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("dataset_id", datasetID),
		zap.String("action", "ExportDataset"),
	)

	format := entity.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	data, contentType, filename, err := h.usecase.ExportDataset(ctx, datasetID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDatasetNotFound):
		ctxzap.Warn(ctx, "dataset not found", zap.Error(err))
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrEmptyDataset),
		errors.Is(err, entity.ErrMissingColumns),
		errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrInvalidParameter):
		ctxzap.Warn(ctx, "invalid request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrEmbedderUnavailable):
		ctxzap.Error(ctx, "embedding service unavailable", zap.Error(err))
		response.Error(w, http.StatusBadGateway, "embedding service unavailable")
	default:
		ctxzap.Error(ctx, "internal error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
