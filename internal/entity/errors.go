package entity

import "errors"

// Domain errors
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")

	// Upload validation errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrMissingColumns   = errors.New("file must contain Question and Answer columns")
	ErrEmptyDataset     = errors.New("file contains no valid rows")

	// Row-level validation, reported per row and never fatal for the batch
	ErrEmptyQuestion = errors.New("empty question")
	ErrEmptyAnswer   = errors.New("empty answer")

	// Embedding service errors. Unavailability is fatal at startup: neither
	// ingestion nor querying can proceed without the embedder.
	ErrEmbedderUnavailable = errors.New("embedding service unavailable")
	ErrEmbeddingMismatch   = errors.New("embedding count does not match input count")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
