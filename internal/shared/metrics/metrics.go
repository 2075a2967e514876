package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal atomic.Uint64
	validationFailedTotal   atomic.Uint64
	conversionsTotal        atomic.Uint64
	conversionsFailedTotal  atomic.Uint64
	analysesTotal           atomic.Uint64
	analysesReadyTotal      atomic.Uint64

	processingDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000})
)

// IncDocumentsProcessed counts a finished upload pipeline run.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncValidationFailed counts a file that failed DOCX validation.
func IncValidationFailed() {
	validationFailedTotal.Add(1)
}

// IncConversion counts a LibreOffice conversion attempt.
func IncConversion() {
	conversionsTotal.Add(1)
}

// IncConversionFailed counts a failed conversion.
func IncConversionFailed() {
	conversionsFailedTotal.Add(1)
}

// IncAnalysis counts a readiness analysis; ready marks documents that passed.
func IncAnalysis(ready bool) {
	analysesTotal.Add(1)
	if ready {
		analysesReadyTotal.Add(1)
	}
}

// ObserveProcessingDurationMs records a processing duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_processed_total", "Total documents run through the upload pipeline", documentsProcessedTotal.Load())
	writeCounter(&buf, "validation_failed_total", "Total files that failed DOCX validation", validationFailedTotal.Load())
	writeCounter(&buf, "conversions_total", "Total format conversions attempted", conversionsTotal.Load())
	writeCounter(&buf, "conversions_failed_total", "Total format conversions failed", conversionsFailedTotal.Load())
	writeCounter(&buf, "analyses_total", "Total readiness analyses", analysesTotal.Load())
	writeCounter(&buf, "analyses_ready_total", "Total analyses that found the document ready", analysesReadyTotal.Load())
	writeHistogram(&buf, "processing_duration_ms", "Document processing duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	// counts are already cumulative: Observe bumps every bucket whose bound admits the value.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed milliseconds since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
