// Package convert turns office documents into DOCX by running LibreOffice headless.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"docprep-backend/internal/extract"
	"docprep-backend/internal/shared/telemetry"
	"docprep-backend/internal/shared/util"
)

// DefaultTimeout bounds a single LibreOffice run.
const DefaultTimeout = 60 * time.Second

var (
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrConverterUnavailable = errors.New("libreoffice not found; install LibreOffice for format conversion")
	ErrConversionTimeout    = errors.New("conversion timed out")
	ErrNoOutput             = errors.New("conversion completed but no output file found")
	ErrNoTextLayer          = errors.New("pdf has no extractable text layer")
)

// Formats LibreOffice converts for us, in the order they are advertised.
var convertible = []string{".doc", ".rtf", ".odt", ".txt", ".html", ".htm", ".pdf"}

// Output is a DOCX produced from an input file.
type Output struct {
	FileName  string
	Data      []byte
	Converted bool
	Message   string
}

// Converter runs LibreOffice. The zero value has no executable and only
// passes DOCX input through.
type Converter struct {
	Path    string
	Timeout time.Duration
}

// New returns a Converter for the executable at path, discovering one when
// path is empty.
func New(path string, timeout time.Duration) *Converter {
	if strings.TrimSpace(path) == "" {
		path = Discover()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if path == "" {
		telemetry.Warn("convert.libreoffice_missing", map[string]any{
			"message": "LibreOffice not found. Format conversion may be limited.",
		})
	}
	return &Converter{Path: path, Timeout: timeout}
}

// Available reports whether a LibreOffice executable is configured.
func (c *Converter) Available() bool {
	return c != nil && c.Path != ""
}

// Executable returns the LibreOffice path, empty when unavailable.
func (c *Converter) Executable() string {
	if c == nil {
		return ""
	}
	return c.Path
}

// SupportedFormats lists accepted input extensions.
func (c *Converter) SupportedFormats() []string {
	formats := []string{".docx"}
	if c.Available() {
		formats = append(formats, convertible...)
	}
	return formats
}

// NeedsConversion reports whether name is not already a DOCX file.
func NeedsConversion(name string) bool {
	return strings.ToLower(filepath.Ext(name)) != ".docx"
}

// ConvertToDOCX converts data to DOCX. DOCX input is returned unchanged.
func (c *Converter) ConvertToDOCX(ctx context.Context, name string, data []byte) (Output, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".docx" {
		return Output{FileName: filepath.Base(name), Data: data, Message: "File is already in DOCX format"}, nil
	}
	if !isConvertible(ext) {
		return Output{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, displayExt(ext))
	}
	if !c.Available() {
		return Output{}, ErrConverterUnavailable
	}

	args := []string{}
	switch ext {
	case ".html", ".htm":
		data = bluemonday.UGCPolicy().SanitizeBytes(data)
	case ".pdf":
		text, err := extract.PDFText(data)
		if err != nil || text == "" {
			return Output{}, ErrNoTextLayer
		}
		args = append(args, "--infilter=writer_pdf_import")
	}

	return c.run(ctx, name, data, args)
}

func (c *Converter) run(ctx context.Context, name string, data []byte, extra []string) (Output, error) {
	safeName, err := util.SanitizeFileName(filepath.Base(name))
	if err != nil {
		return Output{}, err
	}

	workDir, err := os.MkdirTemp("", "docprep-convert-*")
	if err != nil {
		return Output{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inDir := filepath.Join(workDir, "in")
	outDir := filepath.Join(workDir, "out")
	for _, dir := range []string{inDir, outDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Output{}, fmt.Errorf("mkdir: %w", err)
		}
	}
	inputPath := filepath.Join(inDir, safeName)
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := []string{
		"-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(workDir, "profile")),
		"--headless",
	}
	args = append(args, extra...)
	args = append(args, "--convert-to", "docx", "--outdir", outDir, inputPath)

	cmd := exec.CommandContext(runCtx, c.Path, args...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	telemetry.Info("convert.start", map[string]any{"file_name": safeName, "executable": c.Path})
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		telemetry.Error("convert.timeout", map[string]any{"file_name": safeName, "timeout": c.Timeout.String()})
		return Output{}, ErrConversionTimeout
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		telemetry.Error("convert.failed", map[string]any{"file_name": safeName, "stderr": msg})
		return Output{}, fmt.Errorf("libreoffice conversion failed: %s", msg)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "*.docx"))
	if err != nil || len(matches) == 0 {
		return Output{}, ErrNoOutput
	}
	converted, err := os.ReadFile(matches[0])
	if err != nil {
		return Output{}, fmt.Errorf("read output: %w", err)
	}

	outName := util.Stem(safeName) + ".docx"
	telemetry.Info("convert.complete", map[string]any{
		"file_name":   safeName,
		"output":      outName,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	})
	return Output{FileName: outName, Data: converted, Converted: true, Message: "File converted successfully"}, nil
}

func isConvertible(ext string) bool {
	for _, e := range convertible {
		if e == ext {
			return true
		}
	}
	return false
}

func displayExt(ext string) string {
	if ext == "" {
		return "no extension"
	}
	return ext
}
