package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"invoice-qa-platform/internal/logger"
	"invoice-qa-platform/internal/telemetry"
)

// PDFExtractor turns uploaded PDF bytes into plain text. Extraction failures
// and image-only documents surface as empty text; the ingestion guardrails
// decide what to do with those.
type PDFExtractor struct {
	metrics *telemetry.Metrics
}

func NewPDFExtractor(metrics *telemetry.Metrics) *PDFExtractor {
	return &PDFExtractor{metrics: metrics}
}

// ExtractionResult contains the extracted text and basic quality signals.
type ExtractionResult struct {
	Text           string
	Pages          int
	ProcessingTime time.Duration
	CharacterCount int
}

// ExtractText reads every page and concatenates the plain text, one page per
// line. Pages that fail to render are skipped with a warning so one bad page
// does not sink the document.
func (e *PDFExtractor) ExtractText(ctx context.Context, name string, content []byte) (*ExtractionResult, error) {
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return nil, fmt.Errorf("context deadline exceeded before extraction")
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		e.record(start, "unreadable")
		return nil, fmt.Errorf("failed to open PDF %s: %w", name, err)
	}

	var text strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("skipping unreadable PDF page", "document", name, "page", i, "error", err)
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	result := &ExtractionResult{
		Text:           text.String(),
		Pages:          pages,
		ProcessingTime: time.Since(start),
		CharacterCount: text.Len(),
	}
	e.record(start, "ok")

	return result, nil
}

func (e *PDFExtractor) record(start time.Time, status string) {
	if e.metrics != nil {
		e.metrics.RecordPDFProcessing(time.Since(start).Seconds(), status)
	}
}
