package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/patterns"
)

type extractorFake struct {
	text      string
	pageCount int
	err       error
}

func (f *extractorFake) Extract(context.Context, string) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.pageCount, nil
}

func newAnalyzeForTest(extractor *extractorFake) *AnalyzeUseCase {
	uc := NewAnalyzeUseCase(extractor, patterns.NewManager(patterns.NewRegistry()), DefaultConfidenceWeights(), nil)
	uc.now = func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) }
	return uc
}

func TestAnalyzeTextFullDocument(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	text := "Werkstattauftrag Nr. 11\nKd.Nr.: 28307\nDatum: 07.10.2025\n"
	meta := uc.AnalyzeText(text, 1, "")

	if meta.CustomerNr == nil || *meta.CustomerNr != "28307" {
		t.Fatalf("customer_nr = %v", meta.CustomerNr)
	}
	if meta.OrderNr == nil || *meta.OrderNr != "11" {
		t.Fatalf("order_nr = %v", meta.OrderNr)
	}
	if meta.Year == nil || *meta.Year != 2025 {
		t.Fatalf("year = %v", meta.Year)
	}
	if meta.OrderDate == nil || *meta.OrderDate != "07.10.2025" {
		t.Fatalf("order_date = %v", meta.OrderDate)
	}
	if meta.DocumentType != "Auftrag" {
		t.Errorf("document_type = %q", meta.DocumentType)
	}
	if meta.Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", meta.Confidence)
	}
	if meta.Hint != nil {
		t.Errorf("unexpected hint %q", *meta.Hint)
	}
}

func TestAnalyzeTextEmpty(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("   \n ", 0, "")
	if meta.Confidence != 0 {
		t.Errorf("confidence = %v", meta.Confidence)
	}
	if meta.DocumentType != domain.DefaultDocumentType {
		t.Errorf("document_type = %q", meta.DocumentType)
	}
	if meta.Hint == nil || *meta.Hint != "Kein Text extrahierbar" {
		t.Errorf("hint = %v", meta.Hint)
	}
}

func TestAnalyzeExtractorFailureDegrades(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{err: errors.New("corrupt pdf")})

	meta := uc.Analyze(context.Background(), "/tmp/kaputt.pdf", "")
	if meta.CustomerNr != nil {
		t.Errorf("customer_nr = %v", meta.CustomerNr)
	}
	if meta.Hint == nil {
		t.Error("expected hint for unreadable file")
	}
	if meta.Confidence != 0 {
		t.Errorf("confidence = %v", meta.Confidence)
	}
}

func TestAnalyzeTextConfidenceWeights(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("Kd.Nr.: 42", 1, "")
	if meta.Confidence != 0.4 {
		t.Errorf("customer only: confidence = %v, want 0.4", meta.Confidence)
	}
	if meta.Hint != nil {
		t.Errorf("unexpected hint %v", *meta.Hint)
	}

	meta = uc.AnalyzeText("Rechnung ohne jede Nummer", 1, "")
	if meta.DocumentType != "Rechnung" {
		t.Fatalf("document_type = %q", meta.DocumentType)
	}
	if meta.Confidence != 0.2 {
		t.Errorf("type only: confidence = %v, want 0.2", meta.Confidence)
	}
	if meta.Hint == nil || *meta.Hint != "Keine Kundennummer gefunden" {
		t.Errorf("hint = %v", meta.Hint)
	}
}

func TestAnalyzeTextVIN(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("FIN: VR7BCZKXCME033281", 1, "")
	if meta.VIN == nil || *meta.VIN != "VR7BCZKXCME033281" {
		t.Fatalf("vin = %v", meta.VIN)
	}

	// 17 uppercase letters without a digit must not pass validation.
	meta = uc.AnalyzeText("FIN: ABCDEFGHJKLMNPRST", 1, "")
	if meta.VIN != nil {
		t.Errorf("vin = %q, want nil", *meta.VIN)
	}
}

func TestAnalyzeTextLicensePlate(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("Kennzeichen:\nHH-AB 123", 1, "")
	if meta.LicensePlate == nil || *meta.LicensePlate != "HH-AB 123" {
		t.Fatalf("license_plate = %v", meta.LicensePlate)
	}
}

func TestAnalyzeTextOdometer(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("Kilometerstand: 123.456 km", 1, "")
	if meta.Odometer == nil || *meta.Odometer != 123456 {
		t.Fatalf("odometer = %v", meta.Odometer)
	}
}

func TestAnalyzeTextYearExpansion(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{})

	meta := uc.AnalyzeText("Datum: 10.05.24", 1, "")
	if meta.Year == nil || *meta.Year != 2024 {
		t.Fatalf("year = %v", meta.Year)
	}

	// 95 expands to 1995, outside the plausible range.
	meta = uc.AnalyzeText("Datum: 10.05.95", 1, "")
	if meta.Year != nil {
		t.Errorf("year = %d, want nil", *meta.Year)
	}
}

func TestAnalyzePageCountCache(t *testing.T) {
	uc := newAnalyzeForTest(&extractorFake{text: "Rechnung", pageCount: 3})

	meta := uc.Analyze(context.Background(), "/tmp/r.pdf", "")
	if meta.PageCount != 3 {
		t.Fatalf("page_count = %d", meta.PageCount)
	}
	if n, ok := uc.PageCount("/tmp/r.pdf"); !ok || n != 3 {
		t.Errorf("cached page count = %d, %v", n, ok)
	}

	uc.ClearPageCache()
	if _, ok := uc.PageCount("/tmp/r.pdf"); ok {
		t.Error("cache not cleared")
	}
}
