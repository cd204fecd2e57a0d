// Package patterns holds the named, versioned extraction patterns and the
// closed set of document templates built on top of them.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

// Field names addressable in a pattern set.
const (
	FieldCustomerNr   = "customer_nr"
	FieldOrderNr      = "order_nr"
	FieldDate         = "date"
	FieldVIN          = "vin"
	FieldLicensePlate = "license_plate"
	FieldCustomerName = "customer_name"
	FieldPostalCode   = "postal_code"
	FieldStreet       = "street"
	FieldOdometer     = "odometer"
)

// Set maps field names to regex sources. Patterns are matched
// case-insensitively; the first capture group carries the value.
type Set map[string]string

// DefaultSet returns the standard patterns for German workshop documents.
func DefaultSet() Set {
	return Set{
		FieldCustomerNr:   `(?:Kunde(?:n)?[-\s]*(?:Nr|nummer)|Kd\.?[-\s]*Nr\.?)[:\s]+(\d+)`,
		FieldOrderNr:      `(?:Werkstatt[-\s]*)?Auftrag(?:s)?[-\s]*(?:Nr|nummer)\.?[:\s]+(\d+)`,
		FieldDate:         `(\d{1,2})\.(\d{1,2})\.(\d{2,4})`,
		FieldVIN:          `\b([A-HJ-NPR-Z0-9]{17})\b`,
		FieldLicensePlate: `([A-ZÄÖÜ]{1,3}[-\s][A-ZÄÖÜ]{1,2}[-\s]?\d{1,4}[EH]?)`,
		FieldCustomerName: `(?:Kunde|Name|Auftraggeber)[:\s]+([A-ZÄÖÜ][a-zäöüß]+(?:\s+[A-ZÄÖÜ][a-zäöüß]+)*)`,
		FieldPostalCode:   `\b(\d{5})\b`,
		FieldStreet:       `([A-ZÄÖÜ][a-zäöüß]+(?:straße|strasse|str\.|weg|platz|allee)\s+\d+[a-z]?)`,
		FieldOdometer:     `(?:Kilometerstand|km[-\s]*Stand|Tachostand)[:\s]*([\d.]+)\s*km`,
	}
}

const defaultCacheCap = 50

// Registry holds one named pattern per logical field plus a bounded
// compiled-pattern cache. Updates are validated before acceptance; an invalid
// pattern leaves the registry unchanged.
type Registry struct {
	mu       sync.RWMutex
	patterns Set
	cache    map[string]*regexp.Regexp
	cacheCap int
}

func NewRegistry() *Registry {
	return &Registry{
		patterns: DefaultSet(),
		cache:    make(map[string]*regexp.Regexp),
		cacheCap: defaultCacheCap,
	}
}

// Get returns the pattern source for a field.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.patterns[name]
	return src, ok
}

// Names returns all known field names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update replaces the pattern for a known field after validating that it
// compiles. The cache entry for the field is invalidated.
func (r *Registry) Update(name, src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patterns[name]; !ok {
		return domain.WrapError(domain.ErrNotFound, "update pattern", fmt.Errorf("unknown field %q", name))
	}
	if _, err := compile(src); err != nil {
		return domain.WrapError(domain.ErrInvalidPattern, "update pattern", err)
	}
	r.patterns[name] = src
	delete(r.cache, name)
	return nil
}

// ResetToDefaults restores the standard pattern set and drops the cache.
func (r *Registry) ResetToDefaults() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = DefaultSet()
	r.cache = make(map[string]*regexp.Regexp)
}

// Compiled returns the compiled pattern for a field. Results are cached until
// the field is updated; once the cache is full, further patterns are compiled
// on every call instead of evicting.
func (r *Registry) Compiled(name string) (*regexp.Regexp, error) {
	r.mu.RLock()
	if re, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return re, nil
	}
	src, ok := r.patterns[name]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "compile pattern", fmt.Errorf("unknown field %q", name))
	}

	re, err := compile(src)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidPattern, "compile pattern", err)
	}

	r.mu.Lock()
	// Cache only if the source is still current; an update may have replaced
	// the pattern while the compile ran outside the lock.
	if cur, ok := r.patterns[name]; ok && cur == src && len(r.cache) < r.cacheCap {
		r.cache[name] = re
	}
	r.mu.Unlock()
	return re, nil
}

// Test runs a candidate pattern against sample text and returns the first
// capture group (or the whole match when the pattern has no groups).
func (r *Registry) Test(src, text string) (string, error) {
	re, err := compile(src)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidPattern, "test pattern", err)
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", nil
	}
	if len(m) > 1 {
		return m[1], nil
	}
	return m[0], nil
}

func compile(src string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + src)
}
