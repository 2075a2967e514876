// Package extract pulls paragraphs, tables, headers and footers out of DOCX
// packages for readiness analysis.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/unicode/norm"

	"docprep-backend/internal/readiness"
	"docprep-backend/internal/shared/storage/object"
)

// ErrInvalidDOCX is returned when the payload is not a readable DOCX package.
var ErrInvalidDOCX = errors.New("invalid docx")

var (
	headerPart = regexp.MustCompile(`^word/header\d*\.xml$`)
	footerPart = regexp.MustCompile(`^word/footer\d*\.xml$`)
)

// Result is the extracted content plus formatting observations.
type Result struct {
	Content    readiness.ExtractedContent `json:"content"`
	Formatting Formatting                 `json:"formatting"`
}

// DOCX extracts structured content from an in-memory DOCX file.
func DOCX(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty payload", ErrInvalidDOCX)
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
	}
	defer doc.Close()

	body, err := parsePart(strings.NewReader(doc.Editable().GetContent()))
	if err != nil {
		return Result{}, fmt.Errorf("%w: document.xml: %v", ErrInvalidDOCX, err)
	}

	headers, footers, err := readHeadersFooters(ctx, data)
	if err != nil {
		return Result{}, err
	}

	content := readiness.ExtractedContent{
		Paragraphs: normalizeAll(body.paragraphs),
		Tables:     make([][][]string, 0, len(body.tables)),
		Headers:    normalizeAll(headers.texts()),
		Footers:    normalizeAll(footers.texts()),
	}
	for _, table := range body.tables {
		rows := make([][]string, 0, len(table))
		for _, row := range table {
			rows = append(rows, normalizeAll(row))
		}
		content.Tables = append(content.Tables, rows)
	}
	content = content.WithTotals()

	marks := body.marks
	marks.headers = len(content.Headers) > 0
	marks.footers = len(content.Footers) > 0
	marks.tables = len(content.Tables) > 0

	return Result{Content: content, Formatting: marks.summary()}, nil
}

// FromStore reads a stored DOCX object and extracts it.
func FromStore(ctx context.Context, store object.ObjectStore, key string) (Result, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s: read: %w", key, err)
	}
	res, err := DOCX(ctx, raw)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s: %w", key, err)
	}
	return res, nil
}

// PDFText returns the plain text layer of a PDF.
func PDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf: %v", r)
		}
	}()
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func readHeadersFooters(ctx context.Context, data []byte) (partText, partText, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDOCX, err)
	}

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if headerPart.MatchString(name) || footerPart.MatchString(name) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var headers, footers partText
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: open %s: %v", ErrInvalidDOCX, f.Name, err)
		}
		parsed, err := parsePart(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalidDOCX, f.Name, err)
		}
		if headerPart.MatchString(strings.ReplaceAll(f.Name, "\\", "/")) {
			headers = append(headers, parsed)
		} else {
			footers = append(footers, parsed)
		}
	}
	return headers, footers, nil
}

// partText collects header or footer parts.
type partText []parsedPart

// texts flattens paragraphs and table cells of every part.
func (p partText) texts() []string {
	var out []string
	for _, part := range p {
		out = append(out, part.paragraphs...)
		for _, table := range part.tables {
			for _, row := range table {
				out = append(out, row...)
			}
		}
	}
	return out
}

func normalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(norm.NFC.String(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
