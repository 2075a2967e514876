// Package validate checks that uploads are well-formed DOCX packages.
package validate

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"docprep-backend/internal/shared/util"
)

const (
	// DOCXExtension is the only extension accepted as a final document.
	DOCXExtension = ".docx"
	// DOCXMimeType is the registered media type for DOCX.
	DOCXMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	contentTypesPart = "[Content_Types].xml"
	documentPart     = "word/document.xml"
)

var requiredParts = []string{contentTypesPart, documentPart}

// Result reports whether a file passed validation.
type Result struct {
	Valid   bool   `json:"valid" yaml:"valid"`
	Message string `json:"message" yaml:"message"`
}

// FileInfo is the metadata recorded for every processed file.
type FileInfo struct {
	Filename     string  `json:"filename" yaml:"filename"`
	SizeBytes    int64   `json:"size_bytes" yaml:"size_bytes"`
	SizeMB       float64 `json:"size_mb" yaml:"size_mb"`
	SizeHuman    string  `json:"size_human" yaml:"size_human"`
	Extension    string  `json:"extension" yaml:"extension"`
	DetectedMime string  `json:"detected_mime" yaml:"detected_mime"`
	Checksum     string  `json:"checksum" yaml:"checksum"`
}

// Fields flattens the info for log details.
func (f FileInfo) Fields() map[string]any {
	return map[string]any{
		"filename":      f.Filename,
		"size_bytes":    f.SizeBytes,
		"size_mb":       f.SizeMB,
		"extension":     f.Extension,
		"detected_mime": f.DetectedMime,
		"checksum":      f.Checksum,
	}
}

// DOCX validates name and data as a DOCX document.
func DOCX(name string, data []byte) Result {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != DOCXExtension {
		return Result{Message: fmt.Sprintf("Invalid file extension. Expected .docx, got %s", displayExt(ext))}
	}
	if reason := checkStructure(data); reason != "" {
		return Result{Message: "File is not a valid DOCX document (" + reason + ")"}
	}
	return Result{Valid: true, Message: "File format validation passed"}
}

// File validates a DOCX file on disk.
func File(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Message: "File does not exist: " + path}
		}
		return Result{Message: "Error validating file format: " + err.Error()}
	}
	return DOCX(path, data)
}

// Info describes a file without validating it.
func Info(name string, data []byte) FileInfo {
	size := int64(len(data))
	return FileInfo{
		Filename:     filepath.Base(name),
		SizeBytes:    size,
		SizeMB:       math.Round(float64(size)/(1024*1024)*100) / 100,
		SizeHuman:    humanize.IBytes(uint64(size)),
		Extension:    strings.ToLower(filepath.Ext(name)),
		DetectedMime: mimetype.Detect(data).String(),
		Checksum:     util.Checksum(data),
	}
}

func checkStructure(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "not a zip archive"
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.ReplaceAll(f.Name, "\\", "/")] = f
	}
	for _, part := range requiredParts {
		if _, ok := files[part]; !ok {
			return "missing " + part
		}
	}

	rc, err := files[contentTypesPart].Open()
	if err != nil {
		return "unreadable content types"
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "unreadable content types"
	}
	if !bytes.Contains(raw, []byte("wordprocessingml")) {
		return "content types do not declare a WordprocessingML document"
	}
	return ""
}

func displayExt(ext string) string {
	if ext == "" {
		return "no extension"
	}
	return ext
}
