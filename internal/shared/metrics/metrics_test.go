package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHistogramBucketsAreCumulativeOnce(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.counts[0] != 1 || snap.counts[1] != 2 || snap.count != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x_ms", "test", snap)
	for _, want := range []string{
		`x_ms_bucket{le="10"} 1`,
		`x_ms_bucket{le="100"} 2`,
		`x_ms_bucket{le="+Inf"} 3`,
		`x_ms_sum 555`,
		`x_ms_count 3`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestHandlerRendersCounters(t *testing.T) {
	IncDocumentsProcessed()
	IncConversion()
	IncConversionFailed()
	IncAnalysis(true)
	ObserveProcessingDurationMs(-3)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
	body := resp.Body.String()
	for _, name := range []string{
		"# TYPE documents_processed_total counter",
		"# TYPE conversions_failed_total counter",
		"# TYPE analyses_ready_total counter",
		"# TYPE processing_duration_ms histogram",
		`processing_duration_ms_bucket{le="50"}`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("missing %q in:\n%s", name, body)
		}
	}
}
