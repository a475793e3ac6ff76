package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	contractsCreatedTotal atomic.Uint64
	pdfGeneratedTotal     atomic.Uint64
	pdfFailedTotal        atomic.Uint64
	emailSentTotal        atomic.Uint64
	emailFailedTotal      atomic.Uint64

	pdfRenderDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncContractsCreated increments the created counter.
func IncContractsCreated() {
	contractsCreatedTotal.Add(1)
}

// IncPDFGenerated increments the successful PDF counter.
func IncPDFGenerated() {
	pdfGeneratedTotal.Add(1)
}

// IncPDFFailed increments the failed PDF counter.
func IncPDFFailed() {
	pdfFailedTotal.Add(1)
}

// IncEmailSent increments the delivered email counter.
func IncEmailSent() {
	emailSentTotal.Add(1)
}

// IncEmailFailed increments the failed email counter.
func IncEmailFailed() {
	emailFailedTotal.Add(1)
}

// ObservePDFRenderMs records a PDF render duration in milliseconds.
func ObservePDFRenderMs(value float64) {
	if value < 0 {
		value = 0
	}
	pdfRenderDuration.Observe(value)
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
	writeCounter(&buf, "contracts_created_total", "Total contracts persisted", contractsCreatedTotal.Load())
	writeCounter(&buf, "pdf_generated_total", "Total PDF files written", pdfGeneratedTotal.Load())
	writeCounter(&buf, "pdf_failed_total", "Total PDF generations where every engine failed", pdfFailedTotal.Load())
	writeCounter(&buf, "email_sent_total", "Total contract emails delivered to the SMTP server", emailSentTotal.Load())
	writeCounter(&buf, "email_failed_total", "Total contract emails that were not sent", emailFailedTotal.Load())
	writeHistogram(&buf, "pdf_render_duration_ms", "PDF render duration in milliseconds", pdfRenderDuration.Snapshot())
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

// Observe counts the value in the first bucket that holds it; writeHistogram
// accumulates on output.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
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
