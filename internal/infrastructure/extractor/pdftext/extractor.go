package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of workshop documents. PDFs are read with a
// pure-Go parser; only the first page is extracted because workshop orders
// carry all metadata in the header. Plain text files are read whole.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	default:
		return extractPlain(path)
	}
}

func extractPDF(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount == 0 {
		return "", 0, nil
	}

	page := r.Page(1)
	if page.V.IsNull() {
		return "", pageCount, nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", pageCount, fmt.Errorf("extract page text: %w", err)
	}
	return text, pageCount, nil
}

func extractPlain(path string) (string, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", 0, fmt.Errorf("unsupported binary format: %s", filepath.Base(path))
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", 0, nil
	}
	return text, 1, nil
}
