package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

var customerHeader = []string{"kunden_nr", "name", "plz", "ort", "strasse", "telefon"}

// CustomerRegistry is a semicolon-separated CSV file loaded into memory.
// Lookups are case-insensitive on names; writes rewrite the whole file, which
// stays the single source of truth shared with the office software export.
type CustomerRegistry struct {
	path string

	mu        sync.RWMutex
	customers map[string]domain.Customer
}

func NewCustomerRegistry(path string) (*CustomerRegistry, error) {
	r := &CustomerRegistry{
		path:      path,
		customers: make(map[string]domain.Customer),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CustomerRegistry) load() error {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open customer file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("parse customer file: %w", err)
	}

	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(row[0], customerHeader[0]) {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		c := domain.Customer{
			CustomerNr: strings.TrimSpace(row[0]),
			Name:       strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			c.PostalCode = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			c.City = strings.TrimSpace(row[3])
		}
		if len(row) > 4 {
			c.Street = strings.TrimSpace(row[4])
		}
		if len(row) > 5 {
			c.Phone = strings.TrimSpace(row[5])
		}
		r.customers[c.CustomerNr] = c
	}
	return nil
}

func (r *CustomerRegistry) save() error {
	nrs := make([]string, 0, len(r.customers))
	for nr := range r.customers {
		nrs = append(nrs, nr)
	}
	sort.Strings(nrs)

	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create customer file: %w", err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = ';'
	if err := cw.Write(customerHeader); err == nil {
		for _, nr := range nrs {
			c := r.customers[nr]
			if err = cw.Write([]string{c.CustomerNr, c.Name, c.PostalCode, c.City, c.Street, c.Phone}); err != nil {
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
		return fmt.Errorf("write customer file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace customer file: %w", err)
	}
	return nil
}

func (r *CustomerRegistry) GetName(customerNr string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[customerNr]
	if !ok {
		return "", false
	}
	return c.Name, true
}

func (r *CustomerRegistry) Exists(customerNr string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.customers[customerNr]
	return ok
}

func (r *CustomerRegistry) Get(customerNr string) (domain.Customer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[customerNr]
	return c, ok
}

// FindByNameAndPostalCode matches the name exactly (ignoring case) and the
// postal code verbatim.
func (r *CustomerRegistry) FindByNameAndPostalCode(name, postalCode string) []domain.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hits []domain.Customer
	for _, c := range r.customers {
		if strings.EqualFold(c.Name, name) && c.PostalCode == postalCode {
			hits = append(hits, c)
		}
	}
	sortCustomers(hits)
	return hits
}

// FindByNameAndAddress matches the name exactly (ignoring case) and the street
// as a case-insensitive substring in either direction, so "Hauptstr. 5" still
// finds "Hauptstraße 5".
func (r *CustomerRegistry) FindByNameAndAddress(name, street string) []domain.Customer {
	needle := strings.ToLower(strings.TrimSpace(street))
	if needle == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hits []domain.Customer
	for _, c := range r.customers {
		if !strings.EqualFold(c.Name, name) || c.Street == "" {
			continue
		}
		have := strings.ToLower(c.Street)
		if strings.Contains(have, needle) || strings.Contains(needle, have) {
			hits = append(hits, c)
		}
	}
	sortCustomers(hits)
	return hits
}

func (r *CustomerRegistry) Register(c domain.Customer) error {
	if strings.TrimSpace(c.CustomerNr) == "" || strings.TrimSpace(c.Name) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "register customer", fmt.Errorf("customer number and name required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.CustomerNr] = c
	return r.save()
}

// CreateVirtual allocates the next free VK number and registers a placeholder
// customer under it.
func (r *CustomerRegistry) CreateVirtual(name string) (domain.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Customer{}, domain.WrapError(domain.ErrInvalidInput, "create virtual customer", fmt.Errorf("name required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	max := 0
	for nr := range r.customers {
		if !domain.IsVirtualCustomerNr(nr) {
			continue
		}
		if n, err := strconv.Atoi(nr[len(domain.VirtualCustomerPrefix):]); err == nil && n > max {
			max = n
		}
	}
	c := domain.Customer{
		CustomerNr: fmt.Sprintf("%s%04d", domain.VirtualCustomerPrefix, max+1),
		Name:       strings.TrimSpace(name),
	}
	r.customers[c.CustomerNr] = c
	if err := r.save(); err != nil {
		delete(r.customers, c.CustomerNr)
		return domain.Customer{}, err
	}
	return c, nil
}

// ReplaceVirtual retires a placeholder once the real customer number is known.
// The real customer is created if the registry does not know it yet.
func (r *CustomerRegistry) ReplaceVirtual(virtualNr, realNr, name string) error {
	if !domain.IsVirtualCustomerNr(virtualNr) {
		return domain.WrapError(domain.ErrInvalidInput, "replace virtual customer", fmt.Errorf("%s is not a virtual number", virtualNr))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.customers[virtualNr]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "replace virtual customer", fmt.Errorf("virtual customer %s", virtualNr))
	}
	if _, exists := r.customers[realNr]; !exists {
		if strings.TrimSpace(name) == "" {
			name = old.Name
		}
		r.customers[realNr] = domain.Customer{CustomerNr: realNr, Name: name}
	}
	delete(r.customers, virtualNr)
	return r.save()
}

func sortCustomers(cs []domain.Customer) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].CustomerNr < cs[j].CustomerNr })
}
