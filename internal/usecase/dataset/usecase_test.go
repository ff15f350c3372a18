package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
)

type fakeDatasetRepo struct {
	savedDataset *entity.Dataset
	savedEntries []*entity.QAEntry
	saveErr      error

	datasets map[string]*entity.Dataset

	deleteReturns []string
	deleteErr     error
	deletedID     string
}

func (f *fakeDatasetRepo) SaveDataset(_ context.Context, ds *entity.Dataset, entries []*entity.QAEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedDataset = ds
	f.savedEntries = entries
	return nil
}

func (f *fakeDatasetRepo) ListDatasets(_ context.Context) ([]*entity.Dataset, error) {
	out := make([]*entity.Dataset, 0, len(f.datasets))
	for _, ds := range f.datasets {
		out = append(out, ds)
	}
	return out, nil
}

func (f *fakeDatasetRepo) GetDataset(_ context.Context, id string) (*entity.Dataset, error) {
	if ds, ok := f.datasets[id]; ok {
		return ds, nil
	}
	return nil, entity.ErrDatasetNotFound
}

func (f *fakeDatasetRepo) DeleteDataset(_ context.Context, id string) ([]string, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletedID = id
	return f.deleteReturns, nil
}

type fakeEntryRepo struct {
	entries []*entity.QAEntry
}

func (f *fakeEntryRepo) LoadAll(_ context.Context) ([]*entity.QAEntry, error) {
	return f.entries, nil
}

func (f *fakeEntryRepo) GetByID(_ context.Context, id string) (*entity.QAEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, entity.ErrDatasetNotFound
}

func (f *fakeEntryRepo) ListByDataset(_ context.Context, datasetID string) ([]*entity.QAEntry, error) {
	var out []*entity.QAEntry
	for _, e := range f.entries {
		if e.DatasetID == datasetID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

type fakeIndex struct {
	added      []string
	removed    []string
	rebuiltIDs []string
}

func (f *fakeIndex) Add(id string, _ []float32) { f.added = append(f.added, id) }
func (f *fakeIndex) Remove(id string)           { f.removed = append(f.removed, id) }
func (f *fakeIndex) Rebuild(ids []string, _ [][]float32) {
	f.rebuiltIDs = append([]string{}, ids...)
}

func newTestUsecase(repo *fakeDatasetRepo, entryRepo *fakeEntryRepo, emb *fakeEmbedder, idx *fakeIndex) *DatasetUsecase {
	return NewUsecase(repo, entryRepo, emb, idx, zap.NewNop())
}

func TestIngestSkipsInvalidRowsAndReports(t *testing.T) {
	repo := &fakeDatasetRepo{}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, idx)

	report, err := uc.Ingest(context.Background(), &entity.IngestRequest{
		Filename: "faq.csv",
		Rows: []entity.QARow{
			{Line: 2, Question: "How do I start?", Answer: "Run make start."},
			{Line: 3, Question: "What port?", Answer: "   "},
			{Line: 4, Question: "", Answer: "orphan answer"},
			{Line: 5, Question: "Where are logs?", Answer: "In /var/log."},
		},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if report.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", report.Accepted)
	}
	if len(report.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(report.Skipped))
	}
	if report.Skipped[0].Line != 3 || !strings.Contains(report.Skipped[0].Reason, "answer") {
		t.Errorf("unexpected first rejection: %+v", report.Skipped[0])
	}
	if report.Skipped[1].Line != 4 || !strings.Contains(report.Skipped[1].Reason, "question") {
		t.Errorf("unexpected second rejection: %+v", report.Skipped[1])
	}

	if repo.savedDataset == nil || repo.savedDataset.RowCount != 2 {
		t.Fatalf("saved dataset wrong: %+v", repo.savedDataset)
	}
	if len(repo.savedEntries) != 2 {
		t.Fatalf("saved entries = %d, want 2", len(repo.savedEntries))
	}
	if repo.savedEntries[0].QuestionNormalized == "" {
		t.Error("entries must carry the normalized question")
	}
	if len(idx.added) != 2 {
		t.Errorf("index adds = %d, want 2", len(idx.added))
	}
}

func TestIngestRejectsFullyInvalidFile(t *testing.T) {
	repo := &fakeDatasetRepo{}
	emb := &fakeEmbedder{}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, emb, idx)

	_, err := uc.Ingest(context.Background(), &entity.IngestRequest{
		Filename: "faq.csv",
		Rows: []entity.QARow{
			{Line: 2, Question: "", Answer: ""},
			{Line: 3, Question: "q", Answer: ""},
		},
	})
	if !errors.Is(err, entity.ErrEmptyDataset) {
		t.Fatalf("error = %v, want ErrEmptyDataset", err)
	}

	if emb.calls != 0 {
		t.Error("embedder must not be called for an empty dataset")
	}
	if repo.savedDataset != nil {
		t.Error("nothing must be persisted for an empty dataset")
	}
	if len(idx.added) != 0 {
		t.Error("index must stay untouched for an empty dataset")
	}
}

func TestIngestEmbedderFailureAborts(t *testing.T) {
	repo := &fakeDatasetRepo{}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{err: entity.ErrEmbedderUnavailable}, idx)

	_, err := uc.Ingest(context.Background(), &entity.IngestRequest{
		Filename: "faq.csv",
		Rows:     []entity.QARow{{Line: 2, Question: "q", Answer: "a"}},
	})
	if !errors.Is(err, entity.ErrEmbedderUnavailable) {
		t.Fatalf("error = %v, want ErrEmbedderUnavailable", err)
	}
	if repo.savedDataset != nil || len(idx.added) != 0 {
		t.Error("a failed embedding must leave no rows and no vectors behind")
	}
}

func TestIngestPersistFailureLeavesIndexUntouched(t *testing.T) {
	repo := &fakeDatasetRepo{saveErr: errors.New("connection reset")}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, idx)

	_, err := uc.Ingest(context.Background(), &entity.IngestRequest{
		Filename: "faq.csv",
		Rows:     []entity.QARow{{Line: 2, Question: "q", Answer: "a"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(idx.added) != 0 {
		t.Error("the index must only be updated after a successful commit")
	}
}

func TestIngestDuplicateUploadsStayIndependent(t *testing.T) {
	repo := &fakeDatasetRepo{}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, idx)

	rows := []entity.QARow{{Line: 2, Question: "q", Answer: "a"}}

	first, err := uc.Ingest(context.Background(), &entity.IngestRequest{Filename: "faq.csv", Rows: rows})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := uc.Ingest(context.Background(), &entity.IngestRequest{Filename: "faq.csv", Rows: rows})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if first.Dataset.ID == second.Dataset.ID {
		t.Error("repeat uploads must create distinct datasets")
	}
	if len(idx.added) != 2 || idx.added[0] == idx.added[1] {
		t.Errorf("repeat uploads must index distinct entries: %v", idx.added)
	}
}

func TestDeleteDatasetEvictsVectors(t *testing.T) {
	repo := &fakeDatasetRepo{deleteReturns: []string{"e1", "e2", "e3"}}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, idx)

	if err := uc.DeleteDataset(context.Background(), "ds1"); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}

	if repo.deletedID != "ds1" {
		t.Errorf("deleted id = %q, want ds1", repo.deletedID)
	}
	if len(idx.removed) != 3 {
		t.Errorf("index removals = %v, want all 3 entry ids", idx.removed)
	}
}

func TestDeleteDatasetNotFound(t *testing.T) {
	repo := &fakeDatasetRepo{deleteErr: entity.ErrDatasetNotFound}
	idx := &fakeIndex{}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, idx)

	err := uc.DeleteDataset(context.Background(), "missing")
	if !errors.Is(err, entity.ErrDatasetNotFound) {
		t.Fatalf("error = %v, want ErrDatasetNotFound", err)
	}
	if len(idx.removed) != 0 {
		t.Error("no vectors may be evicted when the delete fails")
	}
}

func TestRebuildIndexLoadsAllEntries(t *testing.T) {
	entryRepo := &fakeEntryRepo{entries: []*entity.QAEntry{
		{ID: "e1", Embedding: []float32{1, 0}},
		{ID: "e2", Embedding: []float32{0, 1}},
	}}
	idx := &fakeIndex{}
	uc := newTestUsecase(&fakeDatasetRepo{}, entryRepo, &fakeEmbedder{}, idx)

	if err := uc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if len(idx.rebuiltIDs) != 2 || idx.rebuiltIDs[0] != "e1" || idx.rebuiltIDs[1] != "e2" {
		t.Errorf("rebuild ids = %v, want [e1 e2]", idx.rebuiltIDs)
	}
}

func TestExportDatasetMarkdown(t *testing.T) {
	ds := &entity.Dataset{
		ID:         "ds1",
		Filename:   "faq.csv",
		UploadedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		RowCount:   1,
	}
	repo := &fakeDatasetRepo{datasets: map[string]*entity.Dataset{"ds1": ds}}
	entryRepo := &fakeEntryRepo{entries: []*entity.QAEntry{
		{ID: "e1", DatasetID: "ds1", Question: "How do I start?", Answer: "Run make start."},
	}}
	uc := newTestUsecase(repo, entryRepo, &fakeEmbedder{}, &fakeIndex{})

	data, contentType, filename, err := uc.ExportDataset(context.Background(), "ds1", entity.FormatMarkdown)
	if err != nil {
		t.Fatalf("ExportDataset: %v", err)
	}

	if !strings.HasPrefix(contentType, "text/markdown") {
		t.Errorf("content type = %q", contentType)
	}
	if filename != "faq_report.md" {
		t.Errorf("filename = %q, want faq_report.md", filename)
	}
	body := string(data)
	if !strings.Contains(body, "How do I start?") || !strings.Contains(body, "Run make start.") {
		t.Errorf("report body missing Q&A pair:\n%s", body)
	}
}

func TestExportDatasetUnknownFormat(t *testing.T) {
	ds := &entity.Dataset{ID: "ds1", Filename: "faq.csv"}
	repo := &fakeDatasetRepo{datasets: map[string]*entity.Dataset{"ds1": ds}}
	uc := newTestUsecase(repo, &fakeEntryRepo{}, &fakeEmbedder{}, &fakeIndex{})

	_, _, _, err := uc.ExportDataset(context.Background(), "ds1", entity.ReportFormat("docx"))
	if !errors.Is(err, entity.ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}
