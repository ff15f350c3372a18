package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/pkg/validator"
)

type fakeDatasetUsecase struct {
	ingestReport *entity.IngestReport
	ingestErr    error
	lastIngest   *entity.IngestRequest

	datasets  []*entity.Dataset
	getErr    error
	deleteErr error
	deletedID string
}

func (f *fakeDatasetUsecase) Ingest(_ context.Context, req *entity.IngestRequest) (*entity.IngestReport, error) {
	f.lastIngest = req
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.ingestReport, nil
}

func (f *fakeDatasetUsecase) ListDatasets(_ context.Context) ([]*entity.Dataset, error) {
	return f.datasets, nil
}

func (f *fakeDatasetUsecase) GetDataset(_ context.Context, id string) (*entity.Dataset, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, ds := range f.datasets {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, entity.ErrDatasetNotFound
}

func (f *fakeDatasetUsecase) DeleteDataset(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

func (f *fakeDatasetUsecase) ExportDataset(_ context.Context, _ string, _ entity.ReportFormat) ([]byte, string, string, error) {
	return []byte("# report"), "text/markdown; charset=utf-8", "faq_report.md", nil
}

func newTestRouter(uc DatasetUsecase) http.Handler {
	cfg := config.FileUploadConfig{MaxFileSize: 1 << 20, MaxUploadSize: 4 << 20}
	h := NewHandler(uc, cfg, validator.NewFileValidator(cfg))
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadDataset(t *testing.T) {
	uc := &fakeDatasetUsecase{ingestReport: &entity.IngestReport{
		Dataset:  &entity.Dataset{ID: "ds1", Filename: "faq.csv", RowCount: 1},
		Accepted: 1,
	}}
	router := newTestRouter(uc)

	body, contentType := multipartUpload(t, "faq.csv", []byte("Question,Answer\nHow?,Like this.\n"))
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if uc.lastIngest == nil || uc.lastIngest.Filename != "faq.csv" {
		t.Fatalf("ingest request not forwarded: %+v", uc.lastIngest)
	}
	if len(uc.lastIngest.Rows) != 1 || uc.lastIngest.Rows[0].Question != "How?" {
		t.Errorf("parsed rows wrong: %+v", uc.lastIngest.Rows)
	}

	var report entity.IngestReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Accepted != 1 || report.Dataset.ID != "ds1" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestUploadDatasetRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  []byte
	}{
		{"wrong extension", "faq.txt", []byte("Question,Answer\nq,a\n")},
		{"missing columns", "faq.csv", []byte("foo,bar\nq,a\n")},
		{"malformed csv", "faq.csv", []byte("Question,Answer\n\"broken,a\n")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeDatasetUsecase{})

			body, contentType := multipartUpload(t, tc.filename, tc.content)
			req := httptest.NewRequest(http.MethodPost, "/datasets", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUploadDatasetRequiresFile(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("note", "no file here")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/datasets", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadDatasetEmptyDatasetMapsTo400(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{ingestErr: entity.ErrEmptyDataset})

	body, contentType := multipartUpload(t, "faq.csv", []byte("Question,Answer\n,\n"))
	req := httptest.NewRequest(http.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetDataset(t *testing.T) {
	uc := &fakeDatasetUsecase{datasets: []*entity.Dataset{{ID: "ds1", Filename: "faq.csv"}}}
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodGet, "/datasets/ds1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ds entity.Dataset
	if err := json.Unmarshal(rec.Body.Bytes(), &ds); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ds.ID != "ds1" {
		t.Errorf("unexpected dataset: %+v", ds)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/datasets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteDataset(t *testing.T) {
	uc := &fakeDatasetUsecase{}
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodDelete, "/datasets/ds1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if uc.deletedID != "ds1" {
		t.Errorf("deleted id = %q, want ds1", uc.deletedID)
	}
}

func TestDeleteDatasetNotFound(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{deleteErr: entity.ErrDatasetNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/datasets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExportDatasetSetsDownloadHeaders(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/datasets/ds1/export?format=md", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="faq_report.md"` {
		t.Errorf("content disposition = %q", got)
	}
	if rec.Body.String() != "# report" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestListDatasetsEmptyIsJSONArray(t *testing.T) {
	router := newTestRouter(&fakeDatasetUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/datasets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp entity.ListDatasetsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Datasets == nil || len(resp.Datasets) != 0 {
		t.Errorf("expected empty list, got %+v", resp.Datasets)
	}
}
