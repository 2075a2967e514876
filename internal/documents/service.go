package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"docprep-backend/internal/convert"
	"docprep-backend/internal/extract"
	"docprep-backend/internal/oplog"
	"docprep-backend/internal/readiness"
	"docprep-backend/internal/shared/metrics"
	"docprep-backend/internal/shared/storage/object"
	"docprep-backend/internal/shared/telemetry"
	"docprep-backend/internal/shared/util"
	"docprep-backend/internal/validate"
)

const (
	// MaxSummaryHours bounds the summary window to one week.
	MaxSummaryHours = 168
	// DownloadPath is the route prefix of processed files.
	DownloadPath = "/api/v1/download/"

	conversionMethod = "libreoffice"
)

// Converter turns other office formats into DOCX.
type Converter interface {
	Available() bool
	Executable() string
	SupportedFormats() []string
	ConvertToDOCX(ctx context.Context, name string, data []byte) (convert.Output, error)
}

// Service runs the document pipeline.
type Service struct {
	Store     object.ObjectStore
	Converter Converter
	Analyzer  *readiness.Analyzer
	Log       *oplog.Logger

	now func() time.Time
}

// NewService constructs a Service. A nil analyzer uses the default configuration.
func NewService(store object.ObjectStore, converter Converter, analyzer *readiness.Analyzer, log *oplog.Logger) *Service {
	if analyzer == nil {
		analyzer = readiness.New(readiness.DefaultConfig())
	}
	if log == nil {
		log = oplog.NewLogger(nil)
	}
	return &Service{
		Store:     store,
		Converter: converter,
		Analyzer:  analyzer,
		Log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process stores an upload, converts it to DOCX when needed, validates it and
// analyzes its translation readiness. Step failures are reported in the
// result; only storage failures are returned as errors.
func (s *Service) Process(ctx context.Context, name string, data []byte, keepOriginal bool) (ProcessResult, error) {
	start := time.Now()
	safeName, err := util.SanitizeFileName(name)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	uploadKey := object.UploadKey(safeName)
	result := ProcessResult{InputFile: uploadKey, Errors: []string{}}
	if _, err := s.Store.SaveWithKey(ctx, uploadKey, contentTypeFor(safeName, data), bytes.NewReader(data)); err != nil {
		s.Log.LogOperation(ctx, oplog.OpCompleteProcessing, uploadKey, oplog.StatusFailure, nil, err.Error())
		return ProcessResult{}, fmt.Errorf("store upload: %w", err)
	}
	telemetry.Info("documents.uploaded", map[string]any{"file_name": safeName, "size_bytes": len(data)})

	info := validate.Info(safeName, data)
	result.Metadata.FileInfo = info
	s.Log.LogFileMetadata(ctx, uploadKey, info.Fields())

	defer func() {
		metrics.IncDocumentsProcessed()
		metrics.ObserveProcessingDurationMs(metrics.SinceMillis(start))
	}()

	working := data
	workingName := safeName
	workingKey := uploadKey

	if convert.NeedsConversion(safeName) {
		metrics.IncConversion()
		out, convErr := s.convert(ctx, safeName, data)
		ok := convErr == nil
		result.Conversion = ConversionInfo{
			Needed:         true,
			Success:        &ok,
			OriginalFormat: strings.ToLower(filepath.Ext(safeName)),
		}
		if convErr != nil {
			metrics.IncConversionFailed()
			msg := conversionMessage(convErr)
			result.Conversion.Message = msg
			s.Log.LogConversion(ctx, uploadKey, "", false, conversionMethod, msg)
			result.Errors = append(result.Errors, "Conversion failed: "+msg)
			s.finish(ctx, &result, uploadKey, keepOriginal)
			return result, nil
		}

		convertedKey := object.ConvertedKey(out.FileName)
		if _, err := s.Store.SaveWithKey(ctx, convertedKey, validate.DOCXMimeType, bytes.NewReader(out.Data)); err != nil {
			return ProcessResult{}, fmt.Errorf("store converted: %w", err)
		}
		result.Conversion.Message = out.Message
		result.Conversion.OutputKey = convertedKey
		s.Log.LogConversion(ctx, uploadKey, convertedKey, true, conversionMethod, "")

		working, workingName, workingKey = out.Data, out.FileName, convertedKey
	} else {
		result.Conversion = ConversionInfo{Needed: false, Message: "File is already in DOCX format"}
	}
	result.FinalDOCXKey = workingKey

	v := validate.DOCX(workingName, working)
	result.Validation = &ValidationInfo{IsValidDOCX: v.Valid, Message: v.Message}
	status, errMsg := oplog.StatusSuccess, ""
	if !v.Valid {
		status, errMsg = oplog.StatusFailure, v.Message
	}
	s.Log.LogOperation(ctx, oplog.OpValidation, workingKey, status, map[string]any{
		"is_valid_docx": v.Valid,
		"message":       v.Message,
	}, errMsg)
	if !v.Valid {
		metrics.IncValidationFailed()
		result.Errors = append(result.Errors, "Validation failed: "+v.Message)
		s.finish(ctx, &result, uploadKey, keepOriginal)
		return result, nil
	}

	analysis := s.analyzeContent(ctx, workingKey, working)
	result.ContentAnalysis = &analysis
	if !analysis.HasTranslatableContent {
		result.Errors = append(result.Errors, "Content analysis warning: "+analysis.Message)
	}

	result.Success = v.Valid && (analysis.HasTranslatableContent || len(result.Errors) == 0)
	if result.Success {
		result.DownloadURL = DownloadPath + path.Base(workingKey)
	}
	s.finish(ctx, &result, uploadKey, keepOriginal)
	return result, nil
}

func (s *Service) convert(ctx context.Context, name string, data []byte) (convert.Output, error) {
	if s.Converter == nil || !s.Converter.Available() {
		return convert.Output{}, convert.ErrConverterUnavailable
	}
	return s.Converter.ConvertToDOCX(ctx, name, data)
}

func (s *Service) analyzeContent(ctx context.Context, key string, data []byte) ContentAnalysis {
	extracted, err := extract.DOCX(ctx, data)
	if err != nil {
		msg := "Failed to analyze content: " + err.Error()
		s.Log.LogOperation(ctx, oplog.OpContentAnalysis, key, oplog.StatusFailure, nil, msg)
		return ContentAnalysis{Message: msg}
	}

	report := s.Analyzer.Analyze(extracted.Content)
	metrics.IncAnalysis(report.ReadyForTranslation)
	s.Log.LogContentAnalysis(ctx, key, report)

	formatting := extracted.Formatting
	return ContentAnalysis{
		HasTranslatableContent: report.ReadyForTranslation,
		Message:                readinessMessage(report),
		Analysis:               &report,
		Formatting:             &formatting,
	}
}

// finish logs the pipeline outcome and drops the original upload when the
// caller does not keep it. An upload that is itself the final DOCX stays.
func (s *Service) finish(ctx context.Context, result *ProcessResult, uploadKey string, keepOriginal bool) {
	if result.Success {
		s.Log.LogOperation(ctx, oplog.OpCompleteProcessing, result.FinalDOCXKey, oplog.StatusSuccess,
			map[string]any{"final_docx_key": result.FinalDOCXKey}, "")
	} else {
		target := result.FinalDOCXKey
		if target == "" {
			target = uploadKey
		}
		s.Log.LogOperation(ctx, oplog.OpCompleteProcessing, target, oplog.StatusFailure,
			map[string]any{"errors": result.Errors}, strings.Join(result.Errors, "; "))
	}

	if keepOriginal || uploadKey == result.FinalDOCXKey {
		return
	}
	if err := s.Store.Delete(context.WithoutCancel(ctx), uploadKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("documents.cleanup_original_failed", map[string]any{"key": uploadKey, "error": err})
	}
}

// ValidateOnly checks the DOCX format without storing or converting the file.
func (s *Service) ValidateOnly(ctx context.Context, name string, data []byte) (ValidateResult, error) {
	safeName, err := util.SanitizeFileName(name)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	info := validate.Info(safeName, data)
	v := validate.DOCX(safeName, data)
	result := ValidateResult{
		FileName:         safeName,
		FileInfo:         info,
		IsValid:          v.Valid,
		Message:          v.Message,
		SupportedFormats: s.supportedFormats(),
	}

	status, errMsg := oplog.StatusSuccess, ""
	if !v.Valid {
		metrics.IncValidationFailed()
		status, errMsg = oplog.StatusFailure, v.Message
	}
	s.Log.LogOperation(ctx, oplog.OpValidationOnly, safeName, status, map[string]any{
		"is_valid":  v.Valid,
		"message":   v.Message,
		"file_info": info.Fields(),
	}, errMsg)
	return result, nil
}

// AnalyzeForTranslation validates a DOCX file and scores its translation
// readiness. Non-DOCX names are rejected with ErrNotDOCX.
func (s *Service) AnalyzeForTranslation(ctx context.Context, name string, data []byte) (AnalysisResult, error) {
	safeName, err := util.SanitizeFileName(name)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.ToLower(filepath.Ext(safeName)) != validate.DOCXExtension {
		return AnalysisResult{}, ErrNotDOCX
	}

	info := validate.Info(safeName, data)
	v := validate.DOCX(safeName, data)
	result := AnalysisResult{
		FileName:          safeName,
		FileInfo:          info,
		FormatValid:       v.Valid,
		ValidationMessage: v.Message,
	}

	notReady := false
	if !v.Valid {
		metrics.IncValidationFailed()
		result.AzureAnalysis = TranslationReadiness{
			AzureTranslateReady: &notReady,
			Error:               "Invalid DOCX format: " + v.Message,
		}
		return result, nil
	}

	extracted, err := extract.DOCX(ctx, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return AnalysisResult{}, ctxErr
		}
		result.AzureAnalysis = TranslationReadiness{AzureTranslateReady: &notReady, Error: err.Error()}
		return result, nil
	}

	report := s.Analyzer.Analyze(extracted.Content)
	metrics.IncAnalysis(report.ReadyForTranslation)
	summary := report.Summary()
	formatting := extracted.Formatting
	ready := report.ReadyForTranslation
	result.AzureAnalysis = TranslationReadiness{
		Summary:             &summary,
		AzureTranslateReady: &ready,
		Formatting:          &formatting,
		Report:              &report,
	}
	result.Success = true

	status := oplog.StatusAnalysisComplete
	if ready {
		status = oplog.StatusSuccess
	}
	s.Log.LogOperation(ctx, oplog.OpAzureTranslateAnalysis, safeName, status, map[string]any{
		"file_info":      info.Fields(),
		"format_valid":   v.Valid,
		"azure_analysis": summary,
	}, "")
	return result, nil
}

// Formats describes which inputs can be turned into DOCX.
func (s *Service) Formats() Formats {
	out := Formats{
		SupportedInputFormats: s.supportedFormats(),
		OutputFormat:          "docx",
	}
	if s.Converter != nil && s.Converter.Available() {
		out.ConversionAvailable = true
		p := s.Converter.Executable()
		out.LibreOfficePath = &p
	}
	return out
}

func (s *Service) supportedFormats() []string {
	if s.Converter == nil {
		return []string{validate.DOCXExtension}
	}
	return s.Converter.SupportedFormats()
}

// Summary aggregates the operation log over the last hours hours (1 to 168).
func (s *Service) Summary(ctx context.Context, hours int) (oplog.Summary, error) {
	if hours < 1 || hours > MaxSummaryHours {
		return oplog.Summary{}, fmt.Errorf("%w: hours must be between 1 and %d", ErrInvalidInput, MaxSummaryHours)
	}
	return s.Log.Summary(ctx, hours)
}

// Open returns a processed file by name, looking in converted files first
// and then in uploads.
func (s *Service) Open(ctx context.Context, fileName string) (io.ReadCloser, object.ObjectInfo, error) {
	if fileName == "" || fileName != path.Base(fileName) || strings.ContainsAny(fileName, `/\`) || fileName == ".." {
		return nil, object.ObjectInfo{}, ErrNotFound
	}
	for _, key := range []string{object.ConvertedKey(fileName), object.UploadKey(fileName)} {
		info, err := s.Store.Stat(ctx, key)
		if errors.Is(err, object.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, object.ObjectInfo{}, err
		}
		rc, err := s.Store.Open(ctx, key)
		if errors.Is(err, object.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, object.ObjectInfo{}, err
		}
		return rc, info, nil
	}
	return nil, object.ObjectInfo{}, ErrNotFound
}

// Cleanup deletes uploads and converted files older than daysOld days.
func (s *Service) Cleanup(ctx context.Context, daysOld int) (CleanupResult, error) {
	if daysOld < 1 {
		return CleanupResult{}, fmt.Errorf("%w: days_old must be at least 1", ErrInvalidInput)
	}
	cutoff := s.now().Add(-time.Duration(daysOld) * 24 * time.Hour)

	var scanned, deleted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, prefix := range []string{object.UploadsPrefix, object.ConvertedPrefix} {
		g.Go(func() error {
			objs, err := s.Store.List(gctx, prefix)
			if err != nil {
				return fmt.Errorf("list %s: %w", prefix, err)
			}
			for _, obj := range objs {
				scanned.Add(1)
				if !obj.ModTime.Before(cutoff) {
					continue
				}
				if err := s.Store.Delete(gctx, obj.Key); err != nil && !errors.Is(err, object.ErrNotFound) {
					failed.Add(1)
					telemetry.Warn("documents.cleanup_delete_failed", map[string]any{"key": obj.Key, "error": err})
					continue
				}
				deleted.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()

	result := CleanupResult{
		DaysOld: daysOld,
		Scanned: scanned.Load(),
		Deleted: deleted.Load(),
		Failed:  failed.Load(),
	}
	status, errMsg := oplog.StatusSuccess, ""
	if err != nil {
		status, errMsg = oplog.StatusFailure, err.Error()
	}
	s.Log.LogOperation(ctx, oplog.OpCleanup, "", status, map[string]any{
		"days_old": daysOld,
		"scanned":  result.Scanned,
		"deleted":  result.Deleted,
		"failed":   result.Failed,
	}, errMsg)
	return result, err
}

func readinessMessage(r readiness.Report) string {
	if r.ReadyForTranslation {
		return fmt.Sprintf("Document is ready for translation (%d translatable words, %d%% readiness score)",
			r.TranslatableWords, r.ReadinessScore)
	}
	issues := r.Recommendations
	msg := "Document not ready for translation. Issues: " + strings.Join(issues[:min(2, len(issues))], "; ")
	if len(issues) > 2 {
		msg += fmt.Sprintf(" and %d more", len(issues)-2)
	}
	return msg
}

func conversionMessage(err error) string {
	switch {
	case errors.Is(err, convert.ErrConverterUnavailable):
		return "LibreOffice not found. Please install LibreOffice for format conversion."
	case errors.Is(err, convert.ErrConversionTimeout):
		return "Conversion timed out"
	case errors.Is(err, convert.ErrNoOutput):
		return "Conversion completed but no output file found"
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return "Unsupported file format: " + strings.TrimPrefix(err.Error(), convert.ErrUnsupportedFormat.Error()+": ")
	case errors.Is(err, convert.ErrNoTextLayer):
		return "PDF has no extractable text layer"
	default:
		return err.Error()
	}
}

func contentTypeFor(name string, data []byte) string {
	if strings.ToLower(filepath.Ext(name)) == validate.DOCXExtension {
		return validate.DOCXMimeType
	}
	return validate.Info(name, data).DetectedMime
}
