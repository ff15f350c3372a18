package entity

// IngestRequest carries one parsed upload into the ingestion pipeline.
type IngestRequest struct {
	Filename string
	Rows     []QARow
}

type ListDatasetsResponse struct {
	Datasets []*Dataset `json:"datasets"`
}

type DeleteDatasetResponse struct {
	Status string `json:"status"`
}
