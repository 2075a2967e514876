package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docprep-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), APIKey([]string{"secret"}), Logging())
	router.POST("/api/v1/validate", func(c *gin.Context) {
		c.Set(FileNameKey, "report.docx")
		c.Set(OperationKey, "validation_only")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	telemetry.SetOutput(&buf, zerolog.InfoLevel)
	defer telemetry.SetOutput(os.Stdout, zerolog.InfoLevel)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", nil)
	req.Header.Set("X-Api-Key", "secret")
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "client_id", "file_name", "operation", "duration_ms", "status", "method", "path"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["file_name"] != "report.docx" {
		t.Fatalf("unexpected file_name: %v", payload["file_name"])
	}
	if payload["operation"] != "validation_only" {
		t.Fatalf("unexpected operation: %v", payload["operation"])
	}
	if id, _ := payload["client_id"].(string); !strings.HasPrefix(id, "key:") {
		t.Fatalf("unexpected client_id: %v", payload["client_id"])
	}
}
