package ports

import (
	"context"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

// TextExtractor is the external collaborator that turns a file into raw text.
// Only the first page is analyzed; the page count is reported for bookkeeping.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (text string, pageCount int, err error)
}

// CustomerRegistry is a keyed lookup over the customer base. Searches return
// zero, one, or many matches; callers must treat "many" as failure, never as
// a best guess.
type CustomerRegistry interface {
	GetName(customerNr string) (string, bool)
	Exists(customerNr string) bool
	Get(customerNr string) (domain.Customer, bool)
	FindByNameAndPostalCode(name, postalCode string) []domain.Customer
	FindByNameAndAddress(name, street string) []domain.Customer
	Register(c domain.Customer) error
	CreateVirtual(name string) (domain.Customer, error)
	ReplaceVirtual(virtualNr, realNr, name string) error
}

// VehicleRegistry maps VINs to owning customers.
type VehicleRegistry interface {
	FindCustomersByVIN(vin string) []string
	Get(vin string) (domain.Vehicle, bool)
	Upsert(v domain.Vehicle) error
}

// DocumentIndex persists every processing outcome and serves search and
// statistics to outside callers.
//
// CheckDuplicate returns the newest non-duplicate entry for the order number;
// an empty documentType matches any type.
type DocumentIndex interface {
	Add(ctx context.Context, doc domain.IndexedDocument) (int64, error)
	AddBatch(ctx context.Context, docs []domain.IndexedDocument) ([]int64, error)
	CheckDuplicate(ctx context.Context, orderNr, documentType string) (*domain.IndexedDocument, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.IndexedDocument, error)
	UpdateTargetPath(ctx context.Context, id int64, newPath string) error

	AddUnclearLegacy(ctx context.Context, entry domain.UnclearLegacyEntry) (int64, error)
	ListUnclearLegacy(ctx context.Context, status string) ([]domain.UnclearLegacyEntry, error)
	AssignUnclearLegacy(ctx context.Context, id int64, customerNr string) error
	DeleteUnclearLegacy(ctx context.Context, id int64) error

	GetStatistics(ctx context.Context) (domain.Statistics, error)
	GetQuickStatistics(ctx context.Context) (domain.QuickStatistics, error)
}

// FileStore moves processed files into the archive tree.
type FileStore interface {
	Move(src, dst string) error
	Exists(path string) bool
}

// ProcessObserver receives timing and progress signals from the processing
// pipeline. Implementations must be safe for concurrent use; extraction
// signals arrive from multiple workers during batch runs.
type ProcessObserver interface {
	BatchStarted(size int)
	DocumentStarted()
	DocumentFinished(status string)
	ExtractionObserved(elapsed time.Duration)
}
