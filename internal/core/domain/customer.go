package domain

import "strings"

// VirtualCustomerPrefix marks placeholder customer numbers auto-created when a
// document had to be filed before the real customer was known.
const VirtualCustomerPrefix = "VK"

type Customer struct {
	CustomerNr string `json:"customer_nr"`
	Name       string `json:"name"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Street     string `json:"street,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// IsVirtual reports whether the customer number is a placeholder awaiting
// replacement by a real number.
func (c Customer) IsVirtual() bool { return IsVirtualCustomerNr(c.CustomerNr) }

func IsVirtualCustomerNr(nr string) bool {
	return strings.HasPrefix(nr, VirtualCustomerPrefix)
}

// Vehicle maps a VIN to its current owner. One VIN maps to exactly one
// customer number at a time; the latest write wins, no ownership history.
type Vehicle struct {
	VIN               string `json:"vin"`
	LicensePlate      string `json:"license_plate,omitempty"`
	CustomerNr        string `json:"customer_nr"`
	Make              string `json:"make,omitempty"`
	Model             string `json:"model,omitempty"`
	FirstRegistration string `json:"first_registration,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}
