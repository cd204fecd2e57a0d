package usecase

import (
	"testing"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

type customerRegistryFake struct {
	customers map[string]domain.Customer
	byNamePLZ map[string][]domain.Customer
	byNameStr map[string][]domain.Customer
}

func (f *customerRegistryFake) GetName(nr string) (string, bool) {
	c, ok := f.customers[nr]
	return c.Name, ok
}

func (f *customerRegistryFake) Exists(nr string) bool {
	_, ok := f.customers[nr]
	return ok
}

func (f *customerRegistryFake) Get(nr string) (domain.Customer, bool) {
	c, ok := f.customers[nr]
	return c, ok
}

func (f *customerRegistryFake) FindByNameAndPostalCode(name, plz string) []domain.Customer {
	return f.byNamePLZ[name+"|"+plz]
}

func (f *customerRegistryFake) FindByNameAndAddress(name, street string) []domain.Customer {
	return f.byNameStr[name+"|"+street]
}

func (f *customerRegistryFake) Register(domain.Customer) error { return nil }

func (f *customerRegistryFake) CreateVirtual(name string) (domain.Customer, error) {
	return domain.Customer{CustomerNr: "VK0001", Name: name}, nil
}

func (f *customerRegistryFake) ReplaceVirtual(string, string, string) error { return nil }

type vehicleRegistryFake struct {
	owners map[string][]string
}

func (f *vehicleRegistryFake) FindCustomersByVIN(vin string) []string { return f.owners[vin] }

func (f *vehicleRegistryFake) Get(vin string) (domain.Vehicle, bool) {
	owners := f.owners[vin]
	if len(owners) == 0 {
		return domain.Vehicle{}, false
	}
	return domain.Vehicle{VIN: vin, CustomerNr: owners[0]}, true
}

func (f *vehicleRegistryFake) Upsert(domain.Vehicle) error { return nil }

func TestResolveVINUnique(t *testing.T) {
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{},
		&vehicleRegistryFake{owners: map[string][]string{"WDB9036631R123456": {"10221"}}},
		nil,
	)

	match := uc.Resolve(domain.ExtractedMetadata{VIN: domain.StrPtr("WDB9036631R123456")})
	if match.Reason != domain.MatchVIN {
		t.Fatalf("reason = %s", match.Reason)
	}
	if match.CustomerNr == nil || *match.CustomerNr != "10221" {
		t.Fatalf("customer_nr = %v", match.CustomerNr)
	}
	if !match.Resolved() {
		t.Error("unique VIN match must resolve")
	}
}

func TestResolveVINMultipleOwners(t *testing.T) {
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{},
		&vehicleRegistryFake{owners: map[string][]string{"WDB9036631R123456": {"10221", "20455"}}},
		nil,
	)

	match := uc.Resolve(domain.ExtractedMetadata{VIN: domain.StrPtr("WDB9036631R123456")})
	if match.Reason != domain.MatchMultiple {
		t.Fatalf("reason = %s", match.Reason)
	}
	if match.CustomerNr != nil {
		t.Fatalf("ambiguous match must not assign, got %q", *match.CustomerNr)
	}
	if match.Resolved() {
		t.Error("ambiguous match must not resolve")
	}
}

func TestResolveNamePlusPostalCodeAmbiguous(t *testing.T) {
	two := []domain.Customer{
		{CustomerNr: "1", Name: "Müller", PostalCode: "21614"},
		{CustomerNr: "2", Name: "Müller", PostalCode: "21614"},
	}
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{byNamePLZ: map[string][]domain.Customer{"Müller|21614": two}},
		&vehicleRegistryFake{},
		nil,
	)

	match := uc.Resolve(domain.ExtractedMetadata{
		CustomerName: domain.StrPtr("Müller"),
		PostalCode:   domain.StrPtr("21614"),
	})
	if match.Reason != domain.MatchMultiple {
		t.Fatalf("reason = %s", match.Reason)
	}
	if match.CustomerNr != nil {
		t.Error("two hits must never auto-assign")
	}
}

func TestResolveNamePlusStreetUnique(t *testing.T) {
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{byNameStr: map[string][]domain.Customer{
			"Schultze|Musterweg 3": {{CustomerNr: "78708", Name: "Schultze"}},
		}},
		&vehicleRegistryFake{},
		nil,
	)

	match := uc.Resolve(domain.ExtractedMetadata{
		CustomerName: domain.StrPtr("Schultze"),
		Street:       domain.StrPtr("Musterweg 3"),
	})
	if match.Reason != domain.MatchNamePlusDetails {
		t.Fatalf("reason = %s", match.Reason)
	}
	if match.CustomerNr == nil || *match.CustomerNr != "78708" {
		t.Fatalf("customer_nr = %v", match.CustomerNr)
	}
}

func TestResolveNameWithoutDetailsUnclear(t *testing.T) {
	uc := NewLegacyResolveUseCase(&customerRegistryFake{}, &vehicleRegistryFake{}, nil)

	match := uc.Resolve(domain.ExtractedMetadata{CustomerName: domain.StrPtr("Meier")})
	if match.Reason != domain.MatchUnclear {
		t.Fatalf("reason = %s", match.Reason)
	}
	if match.CustomerNr != nil {
		t.Error("name alone must never assign")
	}
}

func TestResolveUnknownVINFallsThroughToName(t *testing.T) {
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{byNamePLZ: map[string][]domain.Customer{
			"Schultze|21614": {{CustomerNr: "78708", Name: "Schultze"}},
		}},
		&vehicleRegistryFake{},
		nil,
	)

	match := uc.Resolve(domain.ExtractedMetadata{
		VIN:          domain.StrPtr("VR7BCZKXCME033281"),
		CustomerName: domain.StrPtr("Schultze"),
		PostalCode:   domain.StrPtr("21614"),
	})
	if match.Reason != domain.MatchNamePlusDetails {
		t.Fatalf("reason = %s", match.Reason)
	}
}

func TestValidateMatch(t *testing.T) {
	uc := NewLegacyResolveUseCase(
		&customerRegistryFake{},
		&vehicleRegistryFake{owners: map[string][]string{"WDB9036631R123456": {"10221"}}},
		nil,
	)

	meta := domain.ExtractedMetadata{VIN: domain.StrPtr("WDB9036631R123456")}
	if !uc.ValidateMatch(meta, "10221") {
		t.Error("registered owner rejected")
	}
	if uc.ValidateMatch(meta, "99999") {
		t.Error("foreign customer accepted despite registered VIN")
	}
	if !uc.ValidateMatch(domain.ExtractedMetadata{}, "10221") {
		t.Error("missing VIN must not block validation")
	}
}
