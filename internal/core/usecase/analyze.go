package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
	"github.com/SHP-ART/werkstattarchiv/internal/patterns"
)

// ConfidenceWeights is the fixed, auditable scoring heuristic. The values are
// configuration, not business logic; the sum of all four is clamped to 1.0.
type ConfidenceWeights struct {
	CustomerNr   float64
	OrderNr      float64
	DocumentType float64
	Year         float64
}

func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		CustomerNr:   0.4,
		OrderNr:      0.3,
		DocumentType: 0.2,
		Year:         0.1,
	}
}

const defaultPageCacheCap = 256

// AnalyzeUseCase selects a template, applies its patterns to extracted text
// and computes the confidence score. Analysis itself is a pure function over
// the text and template state; the page-count cache is memoization only and
// safe to clear at any time.
type AnalyzeUseCase struct {
	extractor ports.TextExtractor
	templates *patterns.Manager
	weights   ConfidenceWeights
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	pageCounts map[string]int
	pageCap    int
}

func NewAnalyzeUseCase(extractor ports.TextExtractor, templates *patterns.Manager, weights ConfidenceWeights, logger *slog.Logger) *AnalyzeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeUseCase{
		extractor:  extractor,
		templates:  templates,
		weights:    weights,
		logger:     logger,
		now:        time.Now,
		pageCounts: make(map[string]int),
		pageCap:    defaultPageCacheCap,
	}
}

// Analyze extracts text from the file and analyzes it. Extractor failures are
// non-fatal: they degrade to an all-null result with a hint instead of an
// error, so a single unreadable scan never aborts a batch.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, path, templateName string) domain.ExtractedMetadata {
	text, pageCount, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		uc.logger.Warn("text extraction failed", "path", path, "error", err)
		text, pageCount = "", 0
	}
	uc.rememberPageCount(path, pageCount)
	return uc.AnalyzeText(text, pageCount, templateName)
}

// AnalyzeText applies the selected template to already-extracted text.
func (uc *AnalyzeUseCase) AnalyzeText(text string, pageCount int, templateName string) domain.ExtractedMetadata {
	tpl := uc.templates.Select(templateName)

	meta := domain.ExtractedMetadata{
		DocumentType: domain.DefaultDocumentType,
		TemplateUsed: tpl.Name(),
		PageCount:    pageCount,
	}

	if strings.TrimSpace(text) == "" {
		meta.Hint = domain.StrPtr("Kein Text extrahierbar")
		return meta
	}

	meta.CustomerNr = extractField(tpl, patterns.FieldCustomerNr, text)
	meta.OrderNr = extractField(tpl, patterns.FieldOrderNr, text)
	meta.CustomerName = extractField(tpl, patterns.FieldCustomerName, text)
	meta.PostalCode = extractField(tpl, patterns.FieldPostalCode, text)
	meta.Street = extractField(tpl, patterns.FieldStreet, text)
	meta.DocumentType = detectDocumentType(tpl, text)
	meta.Year, meta.OrderDate = uc.extractDate(tpl, text)
	meta.VIN = extractVIN(tpl, text)
	meta.LicensePlate = extractLicensePlate(tpl, text)
	meta.Odometer = extractOdometer(tpl, text)
	meta.Confidence = uc.confidence(meta)

	if meta.CustomerNr == nil {
		meta.Hint = domain.StrPtr("Keine Kundennummer gefunden")
	}
	return meta
}

// PageCount returns the memoized page count for a previously analyzed file.
func (uc *AnalyzeUseCase) PageCount(path string) (int, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	n, ok := uc.pageCounts[path]
	return n, ok
}

// ClearPageCache drops the memoized page counts.
func (uc *AnalyzeUseCase) ClearPageCache() {
	uc.mu.Lock()
	uc.pageCounts = make(map[string]int)
	uc.mu.Unlock()
}

func (uc *AnalyzeUseCase) rememberPageCount(path string, n int) {
	uc.mu.Lock()
	if len(uc.pageCounts) < uc.pageCap {
		uc.pageCounts[path] = n
	}
	uc.mu.Unlock()
}

func (uc *AnalyzeUseCase) confidence(meta domain.ExtractedMetadata) float64 {
	score := 0.0
	if meta.CustomerNr != nil {
		score += uc.weights.CustomerNr
	}
	if meta.OrderNr != nil {
		score += uc.weights.OrderNr
	}
	if meta.DocumentType != domain.DefaultDocumentType {
		score += uc.weights.DocumentType
	}
	if meta.Year != nil {
		score += uc.weights.Year
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// extractDate returns the plausible year and the full date string of the
// first date match. A 2-digit year is expanded before the plausibility check.
func (uc *AnalyzeUseCase) extractDate(tpl patterns.Template, text string) (*int, *string) {
	re, ok := tpl.Field(patterns.FieldDate)
	if !ok {
		return nil, nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 4 {
		return nil, nil
	}
	raw, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, nil
	}
	year := expandYear(raw)
	if !plausibleYear(year, uc.now().Year()) {
		return nil, nil
	}
	date := fmt.Sprintf("%s.%s.%d", m[1], m[2], year)
	return &year, &date
}

func extractField(tpl patterns.Template, field, text string) *string {
	re, ok := tpl.Field(field)
	if !ok {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 || m[1] == "" {
		return nil
	}
	return domain.StrPtr(strings.TrimSpace(m[1]))
}

func extractVIN(tpl patterns.Template, text string) *string {
	v := extractField(tpl, patterns.FieldVIN, text)
	if v == nil {
		return nil
	}
	vin := strings.ToUpper(*v)
	if !IsValidVIN(vin) {
		return nil
	}
	return &vin
}

func extractLicensePlate(tpl patterns.Template, text string) *string {
	v := extractField(tpl, patterns.FieldLicensePlate, text)
	if v == nil {
		return nil
	}
	plate := NormalizeLicensePlate(*v)
	if !IsValidLicensePlate(plate) {
		return nil
	}
	return &plate
}

func extractOdometer(tpl patterns.Template, text string) *int {
	v := extractField(tpl, patterns.FieldOdometer, text)
	if v == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(*v, ".", ""))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func detectDocumentType(tpl patterns.Template, text string) string {
	lower := strings.ToLower(text)
	for _, rule := range tpl.DocTypeRules() {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return domain.DefaultDocumentType
}
