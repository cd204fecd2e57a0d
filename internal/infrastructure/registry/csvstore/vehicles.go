package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

var vehicleHeader = []string{"fin", "kennzeichen", "kunden_nr", "marke", "modell", "erstzulassung", "aktualisiert"}

// VehicleRegistry maps VINs to owners, backed by a semicolon CSV. The file may
// contain several rows for one VIN (owner changes imported from old exports);
// lookups report all owners so the resolver can refuse to guess.
type VehicleRegistry struct {
	path string

	mu       sync.RWMutex
	vehicles []domain.Vehicle
}

func NewVehicleRegistry(path string) (*VehicleRegistry, error) {
	r := &VehicleRegistry{path: path}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *VehicleRegistry) load() error {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open vehicle file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("parse vehicle file: %w", err)
	}

	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(row[0], vehicleHeader[0]) {
			continue
		}
		if len(row) < 3 {
			continue
		}
		v := domain.Vehicle{
			VIN:          strings.ToUpper(strings.TrimSpace(row[0])),
			LicensePlate: strings.TrimSpace(row[1]),
			CustomerNr:   strings.TrimSpace(row[2]),
		}
		if len(v.VIN) != 17 || v.CustomerNr == "" {
			continue
		}
		if len(row) > 3 {
			v.Make = strings.TrimSpace(row[3])
		}
		if len(row) > 4 {
			v.Model = strings.TrimSpace(row[4])
		}
		if len(row) > 5 {
			v.FirstRegistration = strings.TrimSpace(row[5])
		}
		if len(row) > 6 {
			v.UpdatedAt = strings.TrimSpace(row[6])
		}
		r.vehicles = append(r.vehicles, v)
	}
	return nil
}

func (r *VehicleRegistry) save() error {
	sorted := make([]domain.Vehicle, len(r.vehicles))
	copy(sorted, r.vehicles)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].VIN != sorted[j].VIN {
			return sorted[i].VIN < sorted[j].VIN
		}
		return sorted[i].CustomerNr < sorted[j].CustomerNr
	})

	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create vehicle file: %w", err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = ';'
	if err := cw.Write(vehicleHeader); err == nil {
		for _, v := range sorted {
			if err = cw.Write([]string{v.VIN, v.LicensePlate, v.CustomerNr, v.Make, v.Model, v.FirstRegistration, v.UpdatedAt}); err != nil {
				break
			}
		}
	}
	cw.Flush()
	if err == nil {
		err = cw.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write vehicle file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace vehicle file: %w", err)
	}
	return nil
}

// FindCustomersByVIN returns the distinct customer numbers registered for the
// VIN, sorted for deterministic output.
func (r *VehicleRegistry) FindCustomersByVIN(vin string) []string {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var owners []string
	for _, v := range r.vehicles {
		if v.VIN != vin {
			continue
		}
		if _, dup := seen[v.CustomerNr]; dup {
			continue
		}
		seen[v.CustomerNr] = struct{}{}
		owners = append(owners, v.CustomerNr)
	}
	sort.Strings(owners)
	return owners
}

// Get returns the most recently updated record for the VIN.
func (r *VehicleRegistry) Get(vin string) (domain.Vehicle, bool) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found domain.Vehicle
	ok := false
	for _, v := range r.vehicles {
		if v.VIN != vin {
			continue
		}
		if !ok || v.UpdatedAt > found.UpdatedAt {
			found = v
			ok = true
		}
	}
	return found, ok
}

// Upsert records the current owner of a VIN. An existing record for the same
// VIN and customer is updated in place; a record for a different customer is
// replaced, since one VIN has exactly one current owner.
func (r *VehicleRegistry) Upsert(v domain.Vehicle) error {
	v.VIN = strings.ToUpper(strings.TrimSpace(v.VIN))
	if len(v.VIN) != 17 {
		return domain.WrapError(domain.ErrInvalidInput, "upsert vehicle", fmt.Errorf("vin must be 17 characters: %q", v.VIN))
	}
	if strings.TrimSpace(v.CustomerNr) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upsert vehicle", fmt.Errorf("customer number required"))
	}
	if v.UpdatedAt == "" {
		v.UpdatedAt = time.Now().Format("2006-01-02 15:04:05")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.vehicles[:0]
	for _, old := range r.vehicles {
		if old.VIN != v.VIN {
			kept = append(kept, old)
		}
	}
	r.vehicles = append(kept, v)
	return r.save()
}
