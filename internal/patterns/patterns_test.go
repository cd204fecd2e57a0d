package patterns

import (
	"sync"
	"testing"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

func TestDefaultSetMatchesTypicalDocuments(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		field string
		text  string
		want  string
	}{
		{FieldCustomerNr, "Kunden-Nr: 12345", "12345"},
		{FieldCustomerNr, "Kd.Nr.: 28307", "28307"},
		{FieldCustomerNr, "Kundennummer: 99", "99"},
		{FieldOrderNr, "Auftrag Nr. 11", "11"},
		{FieldOrderNr, "Werkstattauftrag Nr: 4711", "4711"},
		{FieldPostalCode, "Musterweg 3, 21614 Buxtehude", "21614"},
		{FieldOdometer, "Kilometerstand: 123.456 km", "123.456"},
	}
	for _, tc := range cases {
		re, err := reg.Compiled(tc.field)
		if err != nil {
			t.Fatalf("compile %s: %v", tc.field, err)
		}
		m := re.FindStringSubmatch(tc.text)
		if m == nil {
			t.Fatalf("%s: no match in %q", tc.field, tc.text)
		}
		if m[1] != tc.want {
			t.Errorf("%s: got %q, want %q", tc.field, m[1], tc.want)
		}
	}
}

func TestUpdateRejectsInvalidPattern(t *testing.T) {
	reg := NewRegistry()
	before, _ := reg.Get(FieldCustomerNr)

	err := reg.Update(FieldCustomerNr, `(unclosed`)
	if !domain.IsKind(err, domain.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}

	after, _ := reg.Get(FieldCustomerNr)
	if after != before {
		t.Errorf("registry changed after rejected update: %q", after)
	}
}

func TestUpdateUnknownField(t *testing.T) {
	reg := NewRegistry()
	err := reg.Update("no_such_field", `(\d+)`)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTakesEffectAfterCaching(t *testing.T) {
	reg := NewRegistry()

	// Warm the cache with the default pattern.
	if _, err := reg.Compiled(FieldOrderNr); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := reg.Update(FieldOrderNr, `Bestellung[:\s]+(\d+)`); err != nil {
		t.Fatalf("update: %v", err)
	}

	re, err := reg.Compiled(FieldOrderNr)
	if err != nil {
		t.Fatalf("compile after update: %v", err)
	}
	m := re.FindStringSubmatch("Bestellung: 777")
	if m == nil || m[1] != "777" {
		t.Fatalf("updated pattern not in effect, match %v", m)
	}
}

func TestCompiledNeverServesStalePatternAfterUpdate(t *testing.T) {
	reg := NewRegistry()

	// Compiled runs concurrently with Update; afterwards the registry must
	// serve the updated pattern, never a cached compile of the old source.
	for i := 0; i < 200; i++ {
		reg.ResetToDefaults()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Compiled(FieldOrderNr)
		}()
		if err := reg.Update(FieldOrderNr, `Bestellung[:\s]+(\d+)`); err != nil {
			t.Fatalf("update: %v", err)
		}
		wg.Wait()

		re, err := reg.Compiled(FieldOrderNr)
		if err != nil {
			t.Fatalf("compile after update: %v", err)
		}
		m := re.FindStringSubmatch("Bestellung: 9")
		if m == nil || m[1] != "9" {
			t.Fatalf("iteration %d: stale compiled pattern served after update", i)
		}
	}
}

func TestResetToDefaults(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Update(FieldCustomerNr, `X(\d+)`); err != nil {
		t.Fatalf("update: %v", err)
	}
	reg.ResetToDefaults()

	src, _ := reg.Get(FieldCustomerNr)
	if src != DefaultSet()[FieldCustomerNr] {
		t.Errorf("reset did not restore default, got %q", src)
	}
}

func TestTestPattern(t *testing.T) {
	reg := NewRegistry()

	got, err := reg.Test(`Auftrag[:\s]+(\d+)`, "Auftrag: 42")
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if got != "42" {
		t.Errorf("got %q, want 42", got)
	}

	if _, err := reg.Test(`(bad`, "x"); !domain.IsKind(err, domain.ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}

	got, err = reg.Test(`\d+`, "kein Treffer hier")
	if err != nil || got != "" {
		t.Errorf("expected empty match, got %q err %v", got, err)
	}
}
