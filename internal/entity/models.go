package entity

import "time"

// Dataset is an uploaded Q&A source file. It owns its entries: deleting a
// dataset cascades to its entries and their index vectors.
type Dataset struct {
	ID         string    `json:"dataset_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	RowCount   int       `json:"row_count"`
}

// QAEntry is a single question/answer pair. Immutable after ingestion except
// for deletion together with its dataset.
type QAEntry struct {
	ID                 string    `json:"id"`
	DatasetID          string    `json:"dataset_id"`
	Question           string    `json:"question"`
	QuestionNormalized string    `json:"question_normalized"`
	Answer             string    `json:"answer"`
	Embedding          []float32 `json:"-"`
}

// QARow is a raw table row delivered by the upload surface, before validation.
type QARow struct {
	Line     int
	Question string
	Answer   string
}

// RowError reports a single rejected row. Ingestion never aborts a file
// because of it.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// IngestReport is the outcome of one ingestion call.
type IngestReport struct {
	Dataset  *Dataset   `json:"dataset"`
	Accepted int        `json:"accepted"`
	Skipped  []RowError `json:"skipped,omitempty"`
}

// Candidate is one scored match from the similarity index. The flat fields
// duplicate the entry so API responses carry the pair without the embedding.
type Candidate struct {
	Entry    *QAEntry `json:"-"`
	EntryID  string   `json:"entry_id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Score    float64  `json:"score"`
}

// QueryResult is the transient outcome of resolving one question.
// Matched=false is the defined NoMatch outcome, not an error.
type QueryResult struct {
	Matched         bool        `json:"matched"`
	EntryID         string      `json:"entry_id,omitempty"`
	MatchedQuestion string      `json:"matched_question,omitempty"`
	Answer          string      `json:"answer,omitempty"`
	Score           float64     `json:"score,omitempty"`
	Rephrased       bool        `json:"rephrased"`
	Supporting      []Candidate `json:"supporting,omitempty"`
}

type ReportFormat string

const (
	FormatMarkdown ReportFormat = "md"
	FormatPDF      ReportFormat = "pdf"
)
