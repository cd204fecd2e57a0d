package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
)

// Service produces XLSX workbooks from the document index, for handover to
// the office software or the tax advisor.
type Service struct {
	index  ports.DocumentIndex
	logger *slog.Logger
}

func NewService(index ports.DocumentIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{index: index, logger: logger}
}

// ExportDocumentsXLSX returns a workbook with one row per indexed document
// matching the filter, plus a summary sheet with the index statistics.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, filter domain.SearchFilter) ([]byte, error) {
	start := time.Now()

	docs, err := s.index.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	stats, err := s.index.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Dokumente"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{
		"ID", "Dateiname", "Auftrags-Nr", "Auftragsdatum", "Dokumenttyp", "Jahr",
		"Kunden-Nr", "Kundenname", "FIN", "Kennzeichen", "KM-Stand",
		"Altbestand", "Confidence", "Status", "Hinweis", "Zielpfad", "Verarbeitet",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, doc := range docs {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, doc.ID)
		write(2, doc.Filename)
		write(3, domain.StrOrEmpty(doc.OrderNr))
		write(4, domain.StrOrEmpty(doc.OrderDate))
		write(5, domain.StrOrEmpty(doc.DocumentType))
		if doc.Year != nil {
			write(6, *doc.Year)
		}
		write(7, domain.StrOrEmpty(doc.CustomerNr))
		write(8, domain.StrOrEmpty(doc.CustomerName))
		write(9, domain.StrOrEmpty(doc.VIN))
		write(10, domain.StrOrEmpty(doc.LicensePlate))
		if doc.Odometer != nil {
			write(11, *doc.Odometer)
		}
		if doc.IsLegacy {
			write(12, "ja")
		} else {
			write(12, "nein")
		}
		if doc.Confidence != nil {
			write(13, *doc.Confidence)
		}
		write(14, string(doc.Status))
		write(15, domain.StrOrEmpty(doc.Hint))
		write(16, doc.TargetPath)
		if !doc.ProcessedAt.IsZero() {
			write(17, doc.ProcessedAt.Format("2006-01-02 15:04:05"))
		}
	}

	_ = f.SetColWidth(sheet, "B", "B", 50)
	_ = f.SetColWidth(sheet, "H", "H", 24)
	_ = f.SetColWidth(sheet, "I", "J", 20)
	_ = f.SetColWidth(sheet, "P", "P", 60)

	if err := s.writeSummary(f, stats); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export written",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummary(f *excelize.File, stats domain.Statistics) error {
	const sheet = "Statistik"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	row := 1
	write := func(label string, v any) {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, labelCell, label)
		_ = f.SetCellValue(sheet, valueCell, v)
		row++
	}

	write("Dokumente gesamt", stats.Total)
	write("Altbestand", stats.LegacyCount)
	write("Offene Altbestand-Fälle", stats.UnclearLegacyOpen)
	write("Kunden", stats.UniqueCustomers)
	write("Fahrzeuge", stats.UniqueVehicles)
	write("Durchschnittliche Confidence", stats.AverageConfidence)
	row++
	for status, n := range stats.ByStatus {
		write("Status "+status, n)
	}
	for typ, n := range stats.ByType {
		write("Typ "+typ, n)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	return nil
}
