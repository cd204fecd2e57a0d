package domain

// DefaultDocumentType is assigned when no document-type keyword matches.
const DefaultDocumentType = "Dokument"

// Document types produced by relabeling during legacy routing.
const (
	LegacyOrderType   = "Legacy-Auftrag"
	LegacyUnclearType = "Legacy-Unklar"
)

type DocumentStatus string

const (
	StatusSuccess   DocumentStatus = "success"
	StatusUnclear   DocumentStatus = "unclear"
	StatusError     DocumentStatus = "error"
	StatusDuplicate DocumentStatus = "duplicate"
)

// MatchReason classifies the outcome of a legacy customer resolution.
type MatchReason string

const (
	MatchVIN             MatchReason = "fin"
	MatchNamePlusDetails MatchReason = "name_plus_details"
	MatchUnclear         MatchReason = "unclear"
	MatchMultiple        MatchReason = "multiple_matches"
)

// ExtractedMetadata is the immutable result of analyzing one document's text.
// Optional fields are pointers; absent means the pattern did not match.
// CustomerName is the only field backfilled later, by the router.
type ExtractedMetadata struct {
	CustomerNr   *string `json:"customer_nr,omitempty"`
	CustomerName *string `json:"customer_name,omitempty"`
	OrderNr      *string `json:"order_nr,omitempty"`
	OrderDate    *string `json:"order_date,omitempty"`
	DocumentType string  `json:"document_type"`
	Year         *int    `json:"year,omitempty"`
	LicensePlate *string `json:"license_plate,omitempty"`
	VIN          *string `json:"vin,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Street       *string `json:"street,omitempty"`
	Odometer     *int    `json:"odometer,omitempty"`

	Confidence   float64 `json:"confidence"`
	Hint         *string `json:"hint,omitempty"`
	TemplateUsed string  `json:"template_used"`

	IsLegacy          bool         `json:"is_legacy"`
	LegacyMatchReason *MatchReason `json:"legacy_match_reason,omitempty"`

	PageCount int `json:"page_count"`
}

// LegacyMatch is the ephemeral outcome of one legacy resolution attempt.
// CustomerNr is nil unless the match is unique.
type LegacyMatch struct {
	CustomerNr       *string
	Reason           MatchReason
	ConfidenceDetail string
}

// Resolved reports whether the match carries an automatic assignment.
func (m LegacyMatch) Resolved() bool {
	return m.CustomerNr != nil && (m.Reason == MatchVIN || m.Reason == MatchNamePlusDetails)
}

func StrPtr(s string) *string { return &s }

func IntPtr(n int) *int { return &n }

func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
