package domain

import "time"

// IndexedDocument is the persisted record of one processed file.
type IndexedDocument struct {
	ID           int64          `json:"id"`
	Filename     string         `json:"filename"`
	OriginalPath string         `json:"original_path,omitempty"`
	TargetPath   string         `json:"target_path"`
	OrderNr      *string        `json:"order_nr,omitempty"`
	OrderDate    *string        `json:"order_date,omitempty"`
	DocumentType *string        `json:"document_type,omitempty"`
	Year         *int           `json:"year,omitempty"`
	CustomerNr   *string        `json:"customer_nr,omitempty"`
	CustomerName *string        `json:"customer_name,omitempty"`
	VIN          *string        `json:"vin,omitempty"`
	LicensePlate *string        `json:"license_plate,omitempty"`
	Odometer     *int           `json:"odometer,omitempty"`
	IsLegacy     bool           `json:"is_legacy"`
	MatchReason  *string        `json:"match_reason,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Status       DocumentStatus `json:"status"`
	Hint         *string        `json:"hint,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastUpdate   time.Time      `json:"last_update"`
	ProcessedAt  time.Time      `json:"processed_at"`
}

// UnclearLegacyStatus values for pending manual-resolution records.
const (
	UnclearOpen     = "open"
	UnclearAssigned = "assigned"
)

// UnclearLegacyEntry queues a legacy document whose owner could not be
// resolved automatically, for a manual decision.
type UnclearLegacyEntry struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	FilePath     string    `json:"file_path"`
	OrderNr      *string   `json:"order_nr,omitempty"`
	OrderDate    *string   `json:"order_date,omitempty"`
	CustomerName *string   `json:"customer_name,omitempty"`
	VIN          *string   `json:"vin,omitempty"`
	LicensePlate *string   `json:"license_plate,omitempty"`
	Year         *int      `json:"year,omitempty"`
	DocumentType *string   `json:"document_type,omitempty"`
	MatchReason  string    `json:"match_reason"`
	Hint         *string   `json:"hint,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	AssignedAt   *string   `json:"assigned_at,omitempty"`
	AssignedTo   *string   `json:"assigned_to_customer_nr,omitempty"`
	Status       string    `json:"status"`
}

// SearchFilter narrows an index search. Zero values mean "no filter".
// CustomerName, Filename, VIN and LicensePlate are substring matches,
// the rest are exact.
type SearchFilter struct {
	CustomerNr   string
	OrderNr      string
	DocumentType string
	Year         int
	Month        int
	Status       DocumentStatus
	CustomerName string
	Filename     string
	VIN          string
	LicensePlate string
	LegacyOnly   bool
}

// Statistics is the full derived view over the index.
type Statistics struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	ByType            map[string]int `json:"by_type"`
	ByYear            map[int]int    `json:"by_year"`
	LegacyCount       int            `json:"legacy_count"`
	UnclearLegacyOpen int            `json:"unclear_legacy_open"`
	UniqueCustomers   int            `json:"unique_customers"`
	UniqueVehicles    int            `json:"unique_vehicles"`
	AverageConfidence float64        `json:"avg_confidence"`
}

// QuickStatistics is the cheap aggregate-only variant for frequent polling.
type QuickStatistics struct {
	Total             int     `json:"total"`
	SuccessCount      int     `json:"success_count"`
	UnclearCount      int     `json:"unclear_count"`
	UnclearLegacyOpen int     `json:"unclear_legacy_open"`
	AverageConfidence float64 `json:"avg_confidence"`
}
