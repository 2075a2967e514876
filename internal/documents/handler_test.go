package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docprep-backend/internal/bootstrap"
	"docprep-backend/internal/shared/config"
	"docprep-backend/internal/shared/testutil/docxtest"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		OplogStore:      "memory",
		LibreOfficePath: "",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func multipartRequest(t *testing.T, method, target, fileName string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(app *bootstrap.App, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func readyDocument(t *testing.T) []byte {
	return docxtest.MustBuild(t, docxtest.Doc{Paragraphs: []string{"Hello world.", "This is a test."}})
}

func TestUploadThenDownload(t *testing.T) {
	app := newTestApp(t, nil)
	doc := readyDocument(t)

	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/upload", "report.docx", doc))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		Success      bool     `json:"success"`
		FinalDOCXKey string   `json:"final_docx_key"`
		DownloadURL  string   `json:"download_url"`
		Errors       []string `json:"errors"`
		Conversion   struct {
			Needed bool `json:"needed"`
		} `json:"conversion"`
		ContentAnalysis struct {
			HasTranslatableContent bool `json:"has_translatable_content"`
		} `json:"content_analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if !result.Success || len(result.Errors) != 0 {
		t.Fatalf("expected success without errors, got %+v", result)
	}
	if result.Conversion.Needed {
		t.Fatalf("expected no conversion for docx input")
	}
	if !result.ContentAnalysis.HasTranslatableContent {
		t.Fatalf("expected translatable content")
	}
	if result.DownloadURL != "/api/v1/download/report.docx" {
		t.Fatalf("unexpected download url %q", result.DownloadURL)
	}

	download := serve(app, httptest.NewRequest(http.MethodGet, result.DownloadURL, nil))
	if download.Code != http.StatusOK {
		t.Fatalf("expected download 200, got %d", download.Code)
	}
	if got := download.Header().Get("Content-Disposition"); got != `attachment; filename="report.docx"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !bytes.Equal(download.Body.Bytes(), doc) {
		t.Fatalf("downloaded bytes differ from upload")
	}
}

func TestUploadWithoutConverterReportsFailure(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.LibreOfficePath = "" })
	if app.Converter.Available() {
		t.Skip("LibreOffice installed on this machine")
	}

	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/upload", "notes.rtf", []byte(`{\rtf1 hi}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Success || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Conversion failed: ") {
		t.Fatalf("expected a conversion failure, got %+v", result)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	app := newTestApp(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	resp := serve(app, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.MaxUploadBytes = 1024 })

	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/upload", "big.docx", bytes.Repeat([]byte("a"), 4096)))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadRejectsBadKeepOriginal(t *testing.T) {
	app := newTestApp(t, nil)
	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/upload?keep_original=maybe", "a.docx", readyDocument(t)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/validate", "notes.txt", []byte("plain")))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result struct {
		IsValid          bool     `json:"is_valid"`
		Message          string   `json:"message"`
		SupportedFormats []string `json:"supported_formats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	if result.Message != "Invalid file extension. Expected .docx, got .txt" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(result.SupportedFormats) == 0 || result.SupportedFormats[0] != ".docx" {
		t.Fatalf("unexpected supported formats %v", result.SupportedFormats)
	}
}

func TestAzureTranslateAnalysis(t *testing.T) {
	app := newTestApp(t, nil)

	resp := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/azure-translate-analysis", "a.docx", readyDocument(t)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result struct {
		Success       bool `json:"success"`
		FormatValid   bool `json:"format_valid"`
		AzureAnalysis struct {
			ReadyForTranslation bool     `json:"ready_for_translation"`
			AzureTranslateReady bool     `json:"azure_translate_ready"`
			DetectedLanguages   []string `json:"detected_languages"`
			KeyRecommendations  []string `json:"key_recommendations"`
		} `json:"azure_analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || !result.FormatValid || !result.AzureAnalysis.AzureTranslateReady {
		t.Fatalf("expected a ready document, got %+v", result)
	}
	if len(result.AzureAnalysis.KeyRecommendations) == 0 {
		t.Fatalf("expected recommendations")
	}

	notDOCX := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/azure-translate-analysis", "a.pdf", []byte("%PDF")))
	if notDOCX.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for non-docx, got %d", notDOCX.Code)
	}
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(notDOCX.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Message != "Only DOCX files are supported for Azure AI Translate analysis" {
		t.Fatalf("unexpected error message %q", errResp.Error.Message)
	}
}

func TestDownloadKeptOriginalUsesStoredContentType(t *testing.T) {
	app := newTestApp(t, nil)
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	if _, err := app.Store.SaveWithKey(context.Background(), "uploads/scan.pdf", "application/pdf", bytes.NewReader(pdf)); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/download/scan.pdf", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.Equal(resp.Body.Bytes(), pdf) {
		t.Fatalf("downloaded bytes differ from stored original")
	}
}

func TestDownloadNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	for _, target := range []string{"/api/v1/download/missing.docx", "/api/v1/download/.."} {
		resp := serve(app, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", target, resp.Code)
		}
	}
}

func TestFormatsEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	resp := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["output_format"] != "docx" {
		t.Fatalf("unexpected output format %v", result["output_format"])
	}
	if _, ok := result["libreoffice_path"]; !ok {
		t.Fatalf("expected libreoffice_path key")
	}
}

func TestSummaryEndpoint(t *testing.T) {
	app := newTestApp(t, nil)
	serve(app, multipartRequest(t, http.MethodPost, "/api/v1/validate", "a.docx", readyDocument(t)))

	resp := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/summary?hours=2", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var sum struct {
		TotalOperations  int            `json:"total_operations"`
		OperationsByType map[string]int `json:"operations_by_type"`
		TimeRangeHours   int            `json:"time_range_hours"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.TotalOperations != 1 || sum.OperationsByType["validation_only"] != 1 || sum.TimeRangeHours != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	for _, q := range []string{"0", "169", "abc"} {
		bad := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/summary?hours="+q, nil))
		if bad.Code != http.StatusBadRequest {
			t.Fatalf("hours=%s: expected status 400, got %d", q, bad.Code)
		}
	}
}

func TestCleanupEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp := serve(app, httptest.NewRequest(http.MethodDelete, "/api/v1/cleanup?days_old=3", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Cleanup task scheduled for files older than 3 days") {
		t.Fatalf("unexpected body %s", body)
	}

	done := make(chan struct{})
	go func() {
		app.DocumentsHandler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("cleanup did not finish")
	}

	bad := serve(app, httptest.NewRequest(http.MethodDelete, "/api/v1/cleanup?days_old=0", nil))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", bad.Code)
	}
}

func TestHealthAndServiceInfo(t *testing.T) {
	app := newTestApp(t, nil)

	health := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", health.Code)
	}
	var status struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(health.Body).Decode(&status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if status.Status != "healthy" || status.Service != "Document Processing Service" {
		t.Fatalf("unexpected health %+v", status)
	}

	info := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
	if info.Code != http.StatusOK || !strings.Contains(info.Body.String(), `"version":"1.0.0"`) {
		t.Fatalf("unexpected service info %d %s", info.Code, info.Body.String())
	}
}

func TestAPIKeyGuardsDocumentRoutes(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.APIKeys = []string{"secret"} })

	resp := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)
	req.Header.Set("X-Api-Key", "secret")
	if resp := serve(app, req); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 with key, got %d", resp.Code)
	}

	if resp := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected public health, got %d", resp.Code)
	}
}

func TestUploadsShareConvertRateLimit(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimitRPS = 100
		cfg.RateLimitBurst = 100
		cfg.ConvertRateLimitRPS = 0.001
		cfg.ConvertRateLimitBurst = 1
	})

	first := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/upload", "a.docx", readyDocument(t)))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first upload 200, got %d", first.Code)
	}
	second := serve(app, multipartRequest(t, http.MethodPost, "/api/v1/azure-translate-analysis", "a.docx", readyDocument(t)))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	formats := serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	if formats.Code != http.StatusOK {
		t.Fatalf("expected default group to pass, got %d", formats.Code)
	}
}
