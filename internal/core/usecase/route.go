package usecase

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
)

// Unclear reasons reported by the router.
const (
	ReasonNoCustomerNr    = "Keine Kundennummer erkannt"
	ReasonLowConfidence   = "Zu niedrige Confidence"
	ReasonUnknownCustomer = "Kunde nicht in Datenbank"
)

type RouterConfig struct {
	RootDir        string
	UnclearDir     string
	ClearThreshold float64
}

// RouteUseCase builds target paths and filenames from extracted metadata plus
// customer lookups. It never touches the filesystem except for collision
// probing via the file store.
type RouteUseCase struct {
	customers ports.CustomerRegistry
	store     ports.FileStore
	cfg       RouterConfig
	now       func() time.Time
}

func NewRouteUseCase(customers ports.CustomerRegistry, store ports.FileStore, cfg RouterConfig) *RouteUseCase {
	if cfg.ClearThreshold <= 0 {
		cfg.ClearThreshold = 0.6
	}
	return &RouteUseCase{customers: customers, store: store, cfg: cfg, now: time.Now}
}

// Route decides where a document belongs. A document is clear only when a
// customer number is present, the confidence meets the threshold, and the
// number resolves to a known customer name. Legacy documents branch first.
func (uc *RouteUseCase) Route(meta *domain.ExtractedMetadata) ports.RouteDecision {
	if meta.IsLegacy {
		return uc.routeLegacy(meta)
	}

	if meta.CustomerNr == nil {
		return uc.unclearDecision(meta.DocumentType, ReasonNoCustomerNr)
	}
	if meta.Confidence < uc.cfg.ClearThreshold {
		return uc.unclearDecision(meta.DocumentType, fmt.Sprintf("%s: %.2f", ReasonLowConfidence, meta.Confidence))
	}
	name, ok := uc.customers.GetName(*meta.CustomerNr)
	if !ok {
		return uc.unclearDecision(meta.DocumentType, ReasonUnknownCustomer)
	}
	meta.CustomerName = &name

	return ports.RouteDecision{
		TargetPath: uc.customerPath(*meta.CustomerNr, name, meta, meta.DocumentType),
		IsClear:    true,
	}
}

func (uc *RouteUseCase) routeLegacy(meta *domain.ExtractedMetadata) ports.RouteDecision {
	if meta.CustomerNr == nil {
		// Pending manual resolution: park under the legacy bucket keyed by year.
		dir := filepath.Join(uc.cfg.UnclearDir, "Legacy", strconv.Itoa(uc.yearOf(meta)))
		filename := uc.standardFilename(domain.LegacyUnclearType)
		return ports.RouteDecision{
			TargetPath: filepath.Join(dir, filename),
			IsClear:    false,
			Reason:     legacyReason(meta),
		}
	}

	name, ok := uc.customers.GetName(*meta.CustomerNr)
	if !ok {
		// Resolver produced a number the registry does not know. Should not
		// occur; downgrade instead of filing under a phantom customer.
		return uc.unclearDecision(meta.DocumentType, ReasonUnknownCustomer)
	}
	meta.CustomerName = &name

	return ports.RouteDecision{
		TargetPath: uc.customerPath(*meta.CustomerNr, name, meta, domain.LegacyOrderType),
		IsClear:    true,
	}
}

func (uc *RouteUseCase) customerPath(customerNr, customerName string, meta *domain.ExtractedMetadata, docTypeLabel string) string {
	folder := sanitizeSegment(fmt.Sprintf("%s - %s", customerNr, customerName))
	return filepath.Join(
		uc.cfg.RootDir,
		"Kunde",
		folder,
		strconv.Itoa(uc.yearOf(meta)),
		uc.archiveFilename(meta, customerName, docTypeLabel),
	)
}

func (uc *RouteUseCase) unclearDecision(docType, reason string) ports.RouteDecision {
	return ports.RouteDecision{
		TargetPath: filepath.Join(uc.cfg.UnclearDir, uc.standardFilename(docType)),
		IsClear:    false,
		Reason:     reason,
	}
}

// archiveFilename renders the customer-specific filename template:
// {order_nr}_{doctype}_{date}_{vin_or_plate}_{customer_short}_{timestamp}.pdf
func (uc *RouteUseCase) archiveFilename(meta *domain.ExtractedMetadata, customerName, docTypeLabel string) string {
	orderNr := "UNBEKANNT"
	if meta.OrderNr != nil {
		orderNr = *meta.OrderNr
	}

	date := uc.now().Format("20060102")
	if meta.Year != nil {
		// Only the year is reliable; January 1st stands in for the full date.
		date = fmt.Sprintf("%d0101", *meta.Year)
	}

	vehicle := "KEIN-FZG"
	switch {
	case meta.VIN != nil:
		vehicle = *meta.VIN
	case meta.LicensePlate != nil:
		vehicle = strings.ReplaceAll(*meta.LicensePlate, " ", "-")
	}

	name := fmt.Sprintf("%s_%s_%s_%s_%s_%s.pdf",
		orderNr,
		docTypeLabel,
		date,
		vehicle,
		customerShort(customerName),
		uc.now().Format("20060102_150405"),
	)
	return sanitizeSegment(name)
}

func (uc *RouteUseCase) standardFilename(docType string) string {
	return sanitizeSegment(fmt.Sprintf("%s_%s.pdf", uc.now().Format("20060102_150405"), docType))
}

func (uc *RouteUseCase) yearOf(meta *domain.ExtractedMetadata) int {
	if meta.Year != nil {
		return *meta.Year
	}
	return uc.now().Year()
}

// EnsureUniquePath resolves filename collisions. One timestamp probe usually
// suffices; a short random suffix guarantees termination when it does not.
func (uc *RouteUseCase) EnsureUniquePath(path string) string {
	if !uc.store.Exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	probe := fmt.Sprintf("%s_%s%s", base, uc.now().Format("20060102_150405"), ext)
	if !uc.store.Exists(probe) {
		return probe
	}
	return fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext)
}

func legacyReason(meta *domain.ExtractedMetadata) string {
	if meta.LegacyMatchReason != nil {
		return string(*meta.LegacyMatchReason)
	}
	return string(domain.MatchUnclear)
}

// customerShort reduces a customer name to its last whitespace-delimited
// token, alphabetic characters only, capped at 15 runes.
func customerShort(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "UNBEKANNT"
	}
	last := parts[len(parts)-1]
	var b strings.Builder
	for _, r := range last {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || strings.ContainsRune("äöüÄÖÜß", r) {
			b.WriteRune(r)
		}
	}
	short := b.String()
	if short == "" {
		return "UNBEKANNT"
	}
	runes := []rune(short)
	if len(runes) > 15 {
		return string(runes[:15])
	}
	return short
}

// sanitizeSegment strips characters that are invalid in filesystem paths and
// collapses whitespace runs.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
