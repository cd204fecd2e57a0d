package csvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

func writeCustomerFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kunden.csv")
	content := "kunden_nr;name;plz;ort;strasse;telefon\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCustomerRegistryLoad(t *testing.T) {
	path := writeCustomerFile(t,
		"28307;Meier;21614;Buxtehude;Hauptstraße 5;04161-1234",
		"78708;Schultze;21614;Buxtehude;Musterweg 3;",
	)
	reg, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	name, ok := reg.GetName("28307")
	if !ok || name != "Meier" {
		t.Errorf("GetName = %q, %v", name, ok)
	}
	if reg.Exists("99999") {
		t.Error("phantom customer exists")
	}
	c, ok := reg.Get("78708")
	if !ok || c.Street != "Musterweg 3" || c.City != "Buxtehude" {
		t.Errorf("Get = %+v, %v", c, ok)
	}
}

func TestCustomerRegistryMissingFileIsEmpty(t *testing.T) {
	reg, err := NewCustomerRegistry(filepath.Join(t.TempDir(), "fehlt.csv"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reg.Exists("1") {
		t.Error("empty registry has entries")
	}
}

func TestFindByNameAndPostalCode(t *testing.T) {
	path := writeCustomerFile(t,
		"1;Müller;21614;Buxtehude;;",
		"2;Müller;21614;Buxtehude;;",
		"3;Müller;20095;Hamburg;;",
	)
	reg, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	hits := reg.FindByNameAndPostalCode("müller", "21614")
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits := reg.FindByNameAndPostalCode("Müller", "20095"); len(hits) != 1 || hits[0].CustomerNr != "3" {
		t.Errorf("hits = %+v", hits)
	}
	if hits := reg.FindByNameAndPostalCode("Schmidt", "21614"); len(hits) != 0 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestFindByNameAndAddressSubstring(t *testing.T) {
	path := writeCustomerFile(t, "78708;Schultze;21614;Buxtehude;Musterweg 3;")
	reg, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Both directions: extracted fragment inside stored street and vice versa.
	if hits := reg.FindByNameAndAddress("schultze", "musterweg"); len(hits) != 1 {
		t.Errorf("fragment hits = %+v", hits)
	}
	if hits := reg.FindByNameAndAddress("Schultze", "Musterweg 3, Hinterhof"); len(hits) != 1 {
		t.Errorf("superset hits = %+v", hits)
	}
	if hits := reg.FindByNameAndAddress("Schultze", "Hauptstraße"); len(hits) != 0 {
		t.Errorf("wrong street hits = %+v", hits)
	}
}

func TestCreateVirtualNumbering(t *testing.T) {
	path := writeCustomerFile(t, "VK0004;Altfall GmbH;;;;")
	reg, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c, err := reg.CreateVirtual("Neuer Altkunde")
	if err != nil {
		t.Fatalf("create virtual: %v", err)
	}
	if c.CustomerNr != "VK0005" {
		t.Errorf("customer_nr = %s", c.CustomerNr)
	}
	if !c.IsVirtual() {
		t.Error("not marked virtual")
	}

	// Persisted: a fresh load must see the new customer.
	reg2, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reg2.Exists("VK0005") {
		t.Error("virtual customer not persisted")
	}
}

func TestReplaceVirtual(t *testing.T) {
	path := writeCustomerFile(t, "VK0001;Unbekannt Meyer;;;;")
	reg, err := NewCustomerRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := reg.ReplaceVirtual("VK0001", "31337", "Meyer"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if reg.Exists("VK0001") {
		t.Error("virtual number still present")
	}
	name, ok := reg.GetName("31337")
	if !ok || name != "Meyer" {
		t.Errorf("real customer = %q, %v", name, ok)
	}

	err = reg.ReplaceVirtual("31337", "1", "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-virtual number, got %v", err)
	}
	err = reg.ReplaceVirtual("VK0009", "2", "")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
