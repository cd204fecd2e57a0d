package usecase

import "testing"

func TestIsValidVIN(t *testing.T) {
	cases := []struct {
		vin  string
		want bool
	}{
		{"VR7BCZKXCME033281", true},
		{"WDB9036631R123456", true},
		{"VR7BCZKXCME03328", false},   // 16 chars
		{"VR7BCZKXCME0332811", false}, // 18 chars
		{"ABCDEFGHJKLMNPRST", false},  // no digit
		{"VR7BCZKICME033281", false},  // contains I
		{"VR7BCZKOCME033281", false},  // contains O
		{"VR7BCZKQCME033281", false},  // contains Q
		{"vr7bczkxcme033281", false},  // lowercase
	}
	for _, tc := range cases {
		if got := IsValidVIN(tc.vin); got != tc.want {
			t.Errorf("IsValidVIN(%q) = %v, want %v", tc.vin, got, tc.want)
		}
	}
}

func TestNormalizeLicensePlate(t *testing.T) {
	if got := NormalizeLicensePlate("hh  ab   123"); got != "HH AB 123" {
		t.Errorf("got %q", got)
	}
}

func TestIsValidLicensePlate(t *testing.T) {
	cases := []struct {
		plate string
		want  bool
	}{
		{"HH-AB 123", true},
		{"S-X 1", true},
		{"HHAB123", false}, // no separator
		{"HH-ABC", false},  // no digit
	}
	for _, tc := range cases {
		if got := IsValidLicensePlate(tc.plate); got != tc.want {
			t.Errorf("IsValidLicensePlate(%q) = %v, want %v", tc.plate, got, tc.want)
		}
	}
}

func TestExpandYear(t *testing.T) {
	cases := []struct{ in, want int }{
		{25, 2025},
		{50, 2050},
		{51, 1951},
		{99, 1999},
		{0, 2000},
		{2024, 2024},
		{123, 123},
	}
	for _, tc := range cases {
		if got := expandYear(tc.in); got != tc.want {
			t.Errorf("expandYear(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPlausibleYear(t *testing.T) {
	const current = 2026
	cases := []struct {
		year int
		want bool
	}{
		{2000, true},
		{2026, true},
		{2027, true},
		{2028, false},
		{1999, false},
		{123, false},
	}
	for _, tc := range cases {
		if got := plausibleYear(tc.year, current); got != tc.want {
			t.Errorf("plausibleYear(%d) = %v, want %v", tc.year, got, tc.want)
		}
	}
}
