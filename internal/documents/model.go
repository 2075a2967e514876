package documents

import (
	"docprep-backend/internal/extract"
	"docprep-backend/internal/readiness"
	"docprep-backend/internal/validate"
)

// ConversionInfo describes the conversion step of a pipeline run.
type ConversionInfo struct {
	Needed         bool   `json:"needed"`
	Success        *bool  `json:"success,omitempty"`
	Message        string `json:"message"`
	OutputKey      string `json:"output_key,omitempty"`
	OriginalFormat string `json:"original_format,omitempty"`
}

// ValidationInfo is the DOCX validation outcome.
type ValidationInfo struct {
	IsValidDOCX bool   `json:"is_valid_docx"`
	Message     string `json:"message"`
}

// ContentAnalysis is the readiness outcome of a pipeline run.
type ContentAnalysis struct {
	HasTranslatableContent bool                `json:"has_translatable_content"`
	Message                string              `json:"message"`
	Analysis               *readiness.Report   `json:"analysis,omitempty"`
	Formatting             *extract.Formatting `json:"formatting_analysis,omitempty"`
}

// Metadata holds file facts captured before processing.
type Metadata struct {
	FileInfo validate.FileInfo `json:"file_info"`
}

// ProcessResult is returned by the upload pipeline.
type ProcessResult struct {
	InputFile       string           `json:"input_file"`
	Metadata        Metadata         `json:"metadata"`
	Conversion      ConversionInfo   `json:"conversion"`
	Validation      *ValidationInfo  `json:"validation,omitempty"`
	ContentAnalysis *ContentAnalysis `json:"content_analysis,omitempty"`
	Success         bool             `json:"success"`
	FinalDOCXKey    string           `json:"final_docx_key,omitempty"`
	DownloadURL     string           `json:"download_url,omitempty"`
	Errors          []string         `json:"errors"`
}

// ValidateResult is returned by ValidateOnly.
type ValidateResult struct {
	FileName         string            `json:"file_name"`
	FileInfo         validate.FileInfo `json:"file_info"`
	IsValid          bool              `json:"is_valid"`
	Message          string            `json:"message"`
	SupportedFormats []string          `json:"supported_formats"`
}

// TranslationReadiness is the analysis block of a translation analysis. On
// failure only AzureTranslateReady and Error are set.
type TranslationReadiness struct {
	*readiness.Summary
	AzureTranslateReady *bool               `json:"azure_translate_ready,omitempty"`
	Error               string              `json:"error,omitempty"`
	Formatting          *extract.Formatting `json:"formatting_analysis,omitempty"`
	Report              *readiness.Report   `json:"report,omitempty"`
}

// AnalysisResult is returned by AnalyzeForTranslation.
type AnalysisResult struct {
	FileName          string               `json:"file_name"`
	FileInfo          validate.FileInfo    `json:"file_info"`
	FormatValid       bool                 `json:"format_valid"`
	ValidationMessage string               `json:"validation_message"`
	AzureAnalysis     TranslationReadiness `json:"azure_analysis"`
	Success           bool                 `json:"success"`
}

// Formats describes conversion support.
type Formats struct {
	SupportedInputFormats []string `json:"supported_input_formats"`
	OutputFormat          string   `json:"output_format"`
	ConversionAvailable   bool     `json:"conversion_available"`
	LibreOfficePath       *string  `json:"libreoffice_path"`
}

// CleanupResult reports a cleanup sweep.
type CleanupResult struct {
	DaysOld int   `json:"days_old"`
	Scanned int64 `json:"scanned"`
	Deleted int64 `json:"deleted"`
	Failed  int64 `json:"failed"`
}
