package usecase

import (
	"fmt"
	"log/slog"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
)

// LegacyResolveUseCase assigns a customer to a document that carries no
// extracted customer number. Only unambiguous evidence counts: no scoring, no
// fuzzy matching, and ambiguity always surfaces as a pending manual decision.
type LegacyResolveUseCase struct {
	customers ports.CustomerRegistry
	vehicles  ports.VehicleRegistry
	logger    *slog.Logger
}

func NewLegacyResolveUseCase(customers ports.CustomerRegistry, vehicles ports.VehicleRegistry, logger *slog.Logger) *LegacyResolveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyResolveUseCase{customers: customers, vehicles: vehicles, logger: logger}
}

// Resolve evaluates the rules in strict order, stopping at the first
// applicable one: VIN first, then name plus details, otherwise unclear.
func (uc *LegacyResolveUseCase) Resolve(meta domain.ExtractedMetadata) domain.LegacyMatch {
	if meta.VIN != nil {
		if match, ok := uc.matchByVIN(*meta.VIN); ok {
			return match
		}
	}

	if meta.CustomerName != nil {
		if match, ok := uc.matchByNameDetails(*meta.CustomerName, meta.PostalCode, meta.Street); ok {
			return match
		}
	}

	return domain.LegacyMatch{
		Reason:           domain.MatchUnclear,
		ConfidenceDetail: "Keine eindeutigen Merkmale gefunden",
	}
}

// matchByVIN resolves via the vehicle registry. Exactly one owner is an
// automatic assignment; several owners mean an owner change or a duplicate
// record and must never be guessed.
func (uc *LegacyResolveUseCase) matchByVIN(vin string) (domain.LegacyMatch, bool) {
	owners := uc.vehicles.FindCustomersByVIN(vin)
	switch len(owners) {
	case 0:
		return domain.LegacyMatch{}, false
	case 1:
		return domain.LegacyMatch{
			CustomerNr:       domain.StrPtr(owners[0]),
			Reason:           domain.MatchVIN,
			ConfidenceDetail: fmt.Sprintf("FIN %s eindeutig zugeordnet", vin),
		}, true
	default:
		return domain.LegacyMatch{
			Reason:           domain.MatchMultiple,
			ConfidenceDetail: fmt.Sprintf("FIN %s bei %d Kunden gefunden", vin, len(owners)),
		}, true
	}
}

// matchByNameDetails requires the name plus at least one of postal code or
// street. The postal-code search runs first; the street search only when the
// former was not uniquely conclusive.
func (uc *LegacyResolveUseCase) matchByNameDetails(name string, postalCode, street *string) (domain.LegacyMatch, bool) {
	if postalCode == nil && street == nil {
		return domain.LegacyMatch{}, false
	}

	if postalCode != nil {
		hits := uc.customers.FindByNameAndPostalCode(name, *postalCode)
		if len(hits) == 1 {
			return domain.LegacyMatch{
				CustomerNr:       domain.StrPtr(hits[0].CustomerNr),
				Reason:           domain.MatchNamePlusDetails,
				ConfidenceDetail: fmt.Sprintf("Name %q + PLZ %q eindeutig", name, *postalCode),
			}, true
		}
		if len(hits) > 1 {
			return domain.LegacyMatch{
				Reason:           domain.MatchMultiple,
				ConfidenceDetail: fmt.Sprintf("Name %q + PLZ %q nicht eindeutig (%d Treffer)", name, *postalCode, len(hits)),
			}, true
		}
	}

	if street != nil {
		hits := uc.customers.FindByNameAndAddress(name, *street)
		if len(hits) == 1 {
			return domain.LegacyMatch{
				CustomerNr:       domain.StrPtr(hits[0].CustomerNr),
				Reason:           domain.MatchNamePlusDetails,
				ConfidenceDetail: fmt.Sprintf("Name %q + Adresse %q eindeutig", name, *street),
			}, true
		}
		if len(hits) > 1 {
			return domain.LegacyMatch{
				Reason:           domain.MatchMultiple,
				ConfidenceDetail: fmt.Sprintf("Name %q + Adresse %q nicht eindeutig (%d Treffer)", name, *street, len(hits)),
			}, true
		}
	}

	return domain.LegacyMatch{}, false
}

// ValidateMatch cross-checks a previously assigned customer against the VIN's
// registered owners. A mismatch signals an inconsistency for the caller to
// surface; it is never auto-corrected.
func (uc *LegacyResolveUseCase) ValidateMatch(meta domain.ExtractedMetadata, customerNr string) bool {
	if meta.VIN == nil {
		return true
	}
	owners := uc.vehicles.FindCustomersByVIN(*meta.VIN)
	if len(owners) == 0 {
		return true
	}
	for _, nr := range owners {
		if nr == customerNr {
			return true
		}
	}
	return false
}
