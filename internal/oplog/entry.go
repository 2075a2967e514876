// Package oplog records document processing operations and summarizes them.
package oplog

import (
	"context"
	"time"
)

// Entry statuses.
const (
	StatusSuccess          = "success"
	StatusFailure          = "failure"
	StatusWarning          = "warning"
	StatusAnalysisComplete = "analysis_complete"
)

// Operation names.
const (
	OpMetadataCapture        = "metadata_capture"
	OpConversion             = "conversion"
	OpValidation             = "validation"
	OpValidationOnly         = "validation_only"
	OpContentAnalysis        = "content_analysis"
	OpCompleteProcessing     = "complete_processing"
	OpAzureTranslateAnalysis = "azure_translate_analysis"
	OpCleanup                = "cleanup"
)

// Entry is one logged operation.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation"`
	FilePath  string         `json:"file_path"`
	FileName  string         `json:"filename"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details"`
	Error     *string        `json:"error"`
}

// Repo persists entries.
type Repo interface {
	Append(ctx context.Context, entry Entry) error
	ListSince(ctx context.Context, since time.Time) ([]Entry, error)
}
