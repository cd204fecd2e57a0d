package ports

import (
	"context"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
)

// DocumentAnalyzer extracts metadata from a document, optionally with a named
// template. Unknown or empty template names fall back to the active template.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, path, templateName string) domain.ExtractedMetadata
	AnalyzeText(text string, pageCount int, templateName string) domain.ExtractedMetadata
}

// LegacyResolver assigns a customer to a document without a customer number,
// using only unambiguous evidence.
type LegacyResolver interface {
	Resolve(meta domain.ExtractedMetadata) domain.LegacyMatch
	ValidateMatch(meta domain.ExtractedMetadata, customerNr string) bool
}

// RouteDecision is the router's verdict for one document.
type RouteDecision struct {
	TargetPath string
	IsClear    bool
	Reason     string
}

// DocumentRouter builds the target path and filename for a document.
type DocumentRouter interface {
	Route(meta *domain.ExtractedMetadata) RouteDecision
	EnsureUniquePath(path string) string
}

// ProcessResult reports the outcome of filing one document.
type ProcessResult struct {
	Path       string
	TargetPath string
	DocumentID int64
	Status     domain.DocumentStatus
	Reason     string
	Metadata   domain.ExtractedMetadata
}

// ArchiveProcessor runs the full pipeline: analyze, resolve, route, move, index.
type ArchiveProcessor interface {
	ProcessFile(ctx context.Context, path string) (ProcessResult, error)
	ProcessBatch(ctx context.Context, paths []string) ([]ProcessResult, error)
}
