package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"docprep-backend/internal/oplog"
	"docprep-backend/internal/shared/server/middleware"
	"docprep-backend/internal/shared/server/respond"
	"docprep-backend/internal/shared/telemetry"
	"docprep-backend/internal/validate"
)

const defaultMaxUploadSize = 25 << 20 // 25MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64

	background sync.WaitGroup
}

// NewHandler constructs a Handler. maxUpload <= 0 uses the default limit.
func NewHandler(svc *Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUpload}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/formats", h.formats)
	rg.POST("/validate", h.validate)
	rg.POST("/upload", h.upload)
	rg.POST("/azure-translate-analysis", h.analyze)
	rg.GET("/download/:filename", h.download)
	rg.GET("/summary", h.summary)
	rg.DELETE("/cleanup", h.cleanup)
}

// Wait blocks until scheduled background cleanups finish.
func (h *Handler) Wait() {
	h.background.Wait()
}

func (h *Handler) formats(c *gin.Context) {
	respond.OK(c, h.Svc.Formats())
}

func (h *Handler) validate(c *gin.Context) {
	c.Set(middleware.OperationKey, oplog.OpValidationOnly)
	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.Svc.ValidateOnly(c.Request.Context(), name, data)
	if err != nil {
		h.serviceError(c, err, "validation failed")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) upload(c *gin.Context) {
	c.Set(middleware.OperationKey, oplog.OpCompleteProcessing)
	keepOriginal := true
	if v := c.Query("keep_original"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "keep_original must be a boolean", nil)
			return
		}
		keepOriginal = parsed
	}

	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.Svc.Process(c.Request.Context(), name, data, keepOriginal)
	if err != nil {
		h.serviceError(c, err, "processing failed")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Set(middleware.OperationKey, oplog.OpAzureTranslateAnalysis)
	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.Svc.AnalyzeForTranslation(c.Request.Context(), name, data)
	if err != nil {
		if errors.Is(err, ErrNotDOCX) {
			respond.Error(c, http.StatusBadRequest, "unsupported_format",
				"Only DOCX files are supported for Azure AI Translate analysis", nil)
			return
		}
		h.serviceError(c, err, "analysis failed")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) download(c *gin.Context) {
	name := c.Param("filename")
	c.Set(middleware.FileNameKey, name)

	rc, info, err := h.Svc.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open file", nil)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, downloadContentType(name, info.ContentType), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

func downloadContentType(name, stored string) string {
	switch {
	case strings.ToLower(filepath.Ext(name)) == validate.DOCXExtension:
		return validate.DOCXMimeType
	case stored != "":
		return stored
	default:
		return "application/octet-stream"
	}
}

func (h *Handler) summary(c *gin.Context) {
	hours := 24
	if v := c.Query("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "hours must be an integer", nil)
			return
		}
		hours = parsed
	}

	sum, err := h.Svc.Summary(c.Request.Context(), hours)
	if err != nil {
		h.serviceError(c, err, "failed to build summary")
		return
	}
	respond.OK(c, sum)
}

func (h *Handler) cleanup(c *gin.Context) {
	c.Set(middleware.OperationKey, oplog.OpCleanup)
	days := 7
	if v := c.Query("days_old"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "days_old must be an integer", nil)
			return
		}
		days = parsed
	}
	if days < 1 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "days_old must be at least 1", nil)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		if _, err := h.Svc.Cleanup(ctx, days); err != nil {
			telemetry.Error("documents.cleanup_failed", map[string]any{"days_old": days, "error": err})
		}
	}()

	respond.OK(c, gin.H{
		"message": fmt.Sprintf("Cleanup task scheduled for files older than %d days", days),
		"status":  "scheduled",
	})
}

// readUpload reads the multipart "file" field. It writes the error response
// and returns false when the upload is missing or too large.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			h.tooLarge(c)
			return "", nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return "", nil, false
	}
	c.Set(middleware.FileNameKey, fileHeader.Filename)

	data, err := readPart(fileHeader)
	if err != nil {
		if tooLarge(err) {
			h.tooLarge(c)
			return "", nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

func (h *Handler) tooLarge(c *gin.Context) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("file exceeds the %d byte upload limit", h.MaxUploadBytes), nil)
}

func (h *Handler) serviceError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusServiceUnavailable, "canceled", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, err.Error())
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
