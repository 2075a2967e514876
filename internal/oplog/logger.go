package oplog

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"docprep-backend/internal/readiness"
	"docprep-backend/internal/shared/telemetry"
)

// StatusRecorded marks metadata captures, which are neither successes nor failures.
const StatusRecorded = "recorded"

// Logger writes entries to a Repo and mirrors them to the structured log.
// Write failures are logged and swallowed so they never fail the caller.
type Logger struct {
	repo Repo
	now  func() time.Time
}

// NewLogger constructs a Logger backed by repo.
func NewLogger(repo Repo) *Logger {
	return &Logger{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Summary aggregates the entries of a time window.
type Summary struct {
	TotalOperations      int            `json:"total_operations" yaml:"total_operations"`
	SuccessfulOperations int            `json:"successful_operations" yaml:"successful_operations"`
	FailedOperations     int            `json:"failed_operations" yaml:"failed_operations"`
	OperationsByType     map[string]int `json:"operations_by_type" yaml:"operations_by_type"`
	FilesProcessed       []string       `json:"files_processed" yaml:"files_processed"`
	UniqueFilesProcessed int            `json:"unique_files_processed" yaml:"unique_files_processed"`
	TimeRangeHours       int            `json:"time_range_hours" yaml:"time_range_hours"`
}

// LogOperation records one operation. errMsg is empty on success.
func (l *Logger) LogOperation(ctx context.Context, operation, filePath, status string, details map[string]any, errMsg string) {
	if details == nil {
		details = map[string]any{}
	}
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Operation: operation,
		FilePath:  filePath,
		FileName:  baseName(filePath),
		Status:    status,
		Details:   details,
	}
	if errMsg != "" {
		entry.Error = &errMsg
	}

	fields := map[string]any{
		"operation": operation,
		"file_name": entry.FileName,
		"status":    status,
	}
	if errMsg != "" {
		fields["error"] = errMsg
	}
	switch strings.ToLower(status) {
	case StatusSuccess, StatusRecorded:
		telemetry.Info("oplog.operation", fields)
	case StatusFailure:
		telemetry.Error("oplog.operation", fields)
	default:
		telemetry.Warn("oplog.operation", fields)
	}

	if l.repo == nil {
		return
	}
	if err := l.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		telemetry.Error("oplog.append_failed", map[string]any{
			"operation": operation,
			"file_name": entry.FileName,
			"error":     err,
		})
	}
}

// LogFileMetadata records the metadata captured for a file.
func (l *Logger) LogFileMetadata(ctx context.Context, filePath string, metadata map[string]any) {
	l.LogOperation(ctx, OpMetadataCapture, filePath, StatusRecorded, map[string]any{"metadata": metadata}, "")
}

// LogConversion records a format conversion attempt.
func (l *Logger) LogConversion(ctx context.Context, inputFile, outputFile string, success bool, method, errMsg string) {
	details := map[string]any{
		"conversion_method": method,
		"input_format":      strings.ToLower(filepath.Ext(inputFile)),
		"output_format":     nil,
		"output_file":       nil,
	}
	status := StatusFailure
	if success {
		status = StatusSuccess
		details["output_format"] = ".docx"
	}
	if outputFile != "" {
		details["output_file"] = outputFile
	}
	if success {
		errMsg = ""
	}
	l.LogOperation(ctx, OpConversion, inputFile, status, details, errMsg)
}

// LogContentAnalysis records a readiness report. Documents without
// translatable words are logged as warnings.
func (l *Logger) LogContentAnalysis(ctx context.Context, filePath string, report readiness.Report) {
	hasText := report.TranslatableWords > 0
	details := map[string]any{
		"content_analysis":         report.Summary(),
		"has_translatable_content": hasText,
		"word_count":               report.TotalWords,
		"character_count":          report.TotalCharacters,
	}
	status := StatusWarning
	if hasText {
		status = StatusSuccess
	}
	l.LogOperation(ctx, OpContentAnalysis, filePath, status, details, "")
}

// Summary aggregates the entries of the last hours hours.
func (l *Logger) Summary(ctx context.Context, hours int) (Summary, error) {
	out := Summary{
		OperationsByType: map[string]int{},
		FilesProcessed:   []string{},
		TimeRangeHours:   hours,
	}
	if l.repo == nil {
		return out, nil
	}
	since := l.now().Add(-time.Duration(hours) * time.Hour)
	entries, err := l.repo.ListSince(ctx, since)
	if err != nil {
		return Summary{}, err
	}

	files := map[string]struct{}{}
	for _, e := range entries {
		out.TotalOperations++
		switch e.Status {
		case StatusSuccess:
			out.SuccessfulOperations++
		case StatusFailure:
			out.FailedOperations++
		}
		op := e.Operation
		if op == "" {
			op = "unknown"
		}
		out.OperationsByType[op]++
		if e.FileName != "" {
			files[e.FileName] = struct{}{}
		}
	}
	for name := range files {
		out.FilesProcessed = append(out.FilesProcessed, name)
	}
	sort.Strings(out.FilesProcessed)
	out.UniqueFilesProcessed = len(out.FilesProcessed)
	return out, nil
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(filepath.ToSlash(p))
}
