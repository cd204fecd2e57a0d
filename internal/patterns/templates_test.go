package patterns

import "testing"

func TestManagerSelectFallsBackToActive(t *testing.T) {
	m := NewManager(NewRegistry())

	if got := m.Select("").Name(); got != "Standard" {
		t.Errorf("empty name: got %q, want Standard", got)
	}
	if got := m.Select("Alternativ").Name(); got != "Alternativ" {
		t.Errorf("explicit name: got %q", got)
	}
	if got := m.Select("gibt-es-nicht").Name(); got != "Standard" {
		t.Errorf("unknown name: got %q, want Standard", got)
	}
}

func TestManagerSetActive(t *testing.T) {
	m := NewManager(NewRegistry())

	if !m.SetActive("Alternativ") {
		t.Fatal("SetActive rejected known template")
	}
	if got := m.Active().Name(); got != "Alternativ" {
		t.Errorf("active: got %q", got)
	}
	if m.SetActive("unbekannt") {
		t.Error("SetActive accepted unknown template")
	}
	if got := m.Active().Name(); got != "Alternativ" {
		t.Errorf("active changed after rejected switch: %q", got)
	}
}

func TestAlternativeTemplatePatterns(t *testing.T) {
	tpl := NewAlternativeTemplate()

	re, ok := tpl.Field(FieldOrderNr)
	if !ok {
		t.Fatal("order_nr field missing")
	}
	m := re.FindStringSubmatch("Auftrags-Nr.: 5150")
	if m == nil || m[1] != "5150" {
		t.Fatalf("order_nr match %v", m)
	}

	re, ok = tpl.Field(FieldDate)
	if !ok {
		t.Fatal("date field missing")
	}
	m = re.FindStringSubmatch("vom 03.02.2024")
	if m == nil || m[1] != "03" || m[2] != "02" || m[3] != "2024" {
		t.Fatalf("date match %v", m)
	}
}

func TestDocTypeRuleOrder(t *testing.T) {
	tpl := NewStandardTemplate(NewRegistry())
	rules := tpl.DocTypeRules()

	// Rechnung must win over Auftrag for combined texts; the extractor
	// relies on rule order for that.
	if rules[0].Type != "Rechnung" {
		t.Fatalf("first rule is %q, want Rechnung", rules[0].Type)
	}
	for _, r := range rules {
		if len(r.Keywords) == 0 {
			t.Errorf("rule %q has no keywords", r.Type)
		}
	}
}
