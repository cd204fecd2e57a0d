package patterns

import (
	"regexp"
	"sync"
)

// DocTypeRule pairs a document type with its indicator keywords. Rules are
// evaluated in order; the first keyword found in the lowercased text wins.
type DocTypeRule struct {
	Type     string
	Keywords []string
}

// Template bundles field patterns with a document-type keyword table. The
// extractor only talks to this interface; adding a template variant must not
// change the extractor.
type Template interface {
	Name() string
	Description() string
	Field(name string) (*regexp.Regexp, bool)
	DocTypeRules() []DocTypeRule
}

// StandardTemplate resolves its fields through the pattern registry, so
// registry updates take effect immediately.
type StandardTemplate struct {
	reg *Registry
}

func NewStandardTemplate(reg *Registry) *StandardTemplate {
	return &StandardTemplate{reg: reg}
}

func (t *StandardTemplate) Name() string        { return "Standard" }
func (t *StandardTemplate) Description() string { return "Kunde-Nr, Auftrag-Nr, normales Format" }

func (t *StandardTemplate) Field(name string) (*regexp.Regexp, bool) {
	re, err := t.reg.Compiled(name)
	if err != nil {
		return nil, false
	}
	return re, true
}

func (t *StandardTemplate) DocTypeRules() []DocTypeRule {
	return []DocTypeRule{
		{Type: "Rechnung", Keywords: []string{"rechnung"}},
		{Type: "KVA", Keywords: []string{"kostenvoranschlag", "kva"}},
		{Type: "Auftrag", Keywords: []string{"auftrag"}},
		{Type: "HU", Keywords: []string{"hauptuntersuchung", "hu"}},
		{Type: "Garantie", Keywords: []string{"garantie"}},
	}
}

// AlternativeTemplate carries its own fixed pattern set for documents with
// deviating phrasing (Kundennummer, Auftrags-Nr., bilingual keywords).
type AlternativeTemplate struct {
	fields map[string]*regexp.Regexp
}

func NewAlternativeTemplate() *AlternativeTemplate {
	set := DefaultSet()
	set[FieldCustomerNr] = `(?:Kundennummer|Kd[-.]?\s*Nr)[:\s]+(\d+)`
	set[FieldOrderNr] = `(?:Auftrags[-\s]*Nr\.|Auftragsnummer)[:\s]+(\d+)`
	set[FieldDate] = `(?:Datum|vom)[:\s]+(\d{1,2})\.(\d{1,2})\.(\d{2,4})`

	fields := make(map[string]*regexp.Regexp, len(set))
	for name, src := range set {
		fields[name] = regexp.MustCompile("(?i)" + src)
	}
	return &AlternativeTemplate{fields: fields}
}

func (t *AlternativeTemplate) Name() string { return "Alternativ" }
func (t *AlternativeTemplate) Description() string {
	return "Kundennummer, Auftrags-Nr., abweichendes Format"
}

func (t *AlternativeTemplate) Field(name string) (*regexp.Regexp, bool) {
	re, ok := t.fields[name]
	return re, ok
}

func (t *AlternativeTemplate) DocTypeRules() []DocTypeRule {
	return []DocTypeRule{
		{Type: "Rechnung", Keywords: []string{"rechnung", "invoice"}},
		{Type: "KVA", Keywords: []string{"kostenvoranschlag", "kva", "angebot"}},
		{Type: "Auftrag", Keywords: []string{"auftrag", "werkstattauftrag", "order"}},
		{Type: "HU", Keywords: []string{"hauptuntersuchung", "hu", "tüv"}},
		{Type: "Garantie", Keywords: []string{"garantie", "gewährleistung"}},
		{Type: "Lieferschein", Keywords: []string{"lieferschein", "delivery note"}},
	}
}

// Manager owns the closed set of template variants and the active default.
type Manager struct {
	mu        sync.RWMutex
	templates []Template
	active    Template
}

func NewManager(reg *Registry) *Manager {
	templates := []Template{
		NewStandardTemplate(reg),
		NewAlternativeTemplate(),
	}
	return &Manager{templates: templates, active: templates[0]}
}

func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.templates))
	for i, t := range m.templates {
		names[i] = t.Name()
	}
	return names
}

func (m *Manager) ByName(name string) (Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.templates {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// SetActive switches the default template. Unknown names are rejected.
func (m *Manager) SetActive(name string) bool {
	t, ok := m.ByName(name)
	if !ok {
		return false
	}
	m.mu.Lock()
	m.active = t
	m.mu.Unlock()
	return true
}

func (m *Manager) Active() Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Select returns the template by name, falling back to the active one when
// the name is empty or unknown.
func (m *Manager) Select(name string) Template {
	if name != "" {
		if t, ok := m.ByName(name); ok {
			return t
		}
	}
	return m.Active()
}
