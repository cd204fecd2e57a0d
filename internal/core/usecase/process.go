package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
)

type ProcessConfig struct {
	DuplicatesDir  string
	TemplateName   string
	ExtractWorkers int
}

// ProcessUseCase runs the full filing pipeline for one document: analyze,
// resolve legacy ownership, divert duplicates, route, move, index. Expected
// failure modes (no text, unclear ownership, duplicates) become structured
// results; only file and index I/O errors propagate.
type ProcessUseCase struct {
	analyzer ports.DocumentAnalyzer
	resolver ports.LegacyResolver
	router   ports.DocumentRouter
	index    ports.DocumentIndex
	store    ports.FileStore
	observer ports.ProcessObserver
	logger   *slog.Logger
	cfg      ProcessConfig
}

func NewProcessUseCase(
	analyzer ports.DocumentAnalyzer,
	resolver ports.LegacyResolver,
	router ports.DocumentRouter,
	index ports.DocumentIndex,
	store ports.FileStore,
	observer ports.ProcessObserver,
	logger *slog.Logger,
	cfg ProcessConfig,
) *ProcessUseCase {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = 2
	}
	return &ProcessUseCase{
		analyzer: analyzer,
		resolver: resolver,
		router:   router,
		index:    index,
		store:    store,
		observer: observer,
		logger:   logger,
		cfg:      cfg,
	}
}

type nopObserver struct{}

func (nopObserver) BatchStarted(int)                 {}
func (nopObserver) DocumentStarted()                 {}
func (nopObserver) DocumentFinished(string)          {}
func (nopObserver) ExtractionObserved(time.Duration) {}

func (uc *ProcessUseCase) ProcessFile(ctx context.Context, path string) (ports.ProcessResult, error) {
	uc.observer.DocumentStarted()
	meta := uc.analyze(ctx, path)

	doc, result, err := uc.fileDocument(ctx, path, meta)
	if err != nil {
		uc.observer.DocumentFinished(string(domain.StatusError))
		return ports.ProcessResult{}, err
	}

	id, err := uc.index.Add(ctx, doc)
	if err != nil {
		uc.observer.DocumentFinished(string(domain.StatusError))
		return ports.ProcessResult{}, fmt.Errorf("index document: %w", err)
	}
	result.DocumentID = id
	uc.observer.DocumentFinished(string(result.Status))

	uc.logger.Info("document filed",
		"path", path,
		"target", result.TargetPath,
		"status", result.Status,
		"confidence", meta.Confidence,
	)
	return result, nil
}

// analyze runs extraction and analysis for one file and reports the measured
// duration to the observer.
func (uc *ProcessUseCase) analyze(ctx context.Context, path string) domain.ExtractedMetadata {
	start := time.Now()
	meta := uc.analyzer.Analyze(ctx, path, uc.cfg.TemplateName)
	uc.observer.ExtractionObserved(time.Since(start))
	return meta
}

// fileDocument performs everything after analysis and returns the index row
// for the caller to persist, so single and batch processing share one path.
func (uc *ProcessUseCase) fileDocument(ctx context.Context, path string, meta domain.ExtractedMetadata) (domain.IndexedDocument, ports.ProcessResult, error) {
	if meta.CustomerNr == nil {
		uc.resolveLegacy(&meta)
	}

	if dup, err := uc.checkDuplicate(ctx, meta); err != nil {
		return domain.IndexedDocument{}, ports.ProcessResult{}, err
	} else if dup != nil {
		return uc.divertDuplicate(path, meta, dup)
	}

	decision := uc.router.Route(&meta)

	target := uc.router.EnsureUniquePath(decision.TargetPath)
	if err := uc.store.Move(path, target); err != nil {
		return domain.IndexedDocument{}, ports.ProcessResult{}, fmt.Errorf("move %s: %w", path, err)
	}

	// The queued file reference must be the filed location; the intake path
	// is consumed by the move above.
	if meta.IsLegacy && !decision.IsClear && meta.CustomerNr == nil {
		if err := uc.queueUnclearLegacy(ctx, target, meta, decision); err != nil {
			return domain.IndexedDocument{}, ports.ProcessResult{}, err
		}
	}

	status := domain.StatusSuccess
	if !decision.IsClear {
		status = domain.StatusUnclear
	}

	doc := buildIndexedDocument(path, target, meta, status)
	if doc.Hint == nil && decision.Reason != "" {
		doc.Hint = domain.StrPtr(decision.Reason)
	}

	result := ports.ProcessResult{
		Path:       path,
		TargetPath: target,
		Status:     status,
		Reason:     decision.Reason,
		Metadata:   meta,
	}
	return doc, result, nil
}

// resolveLegacy runs the strict resolver and applies its outcome. The
// customer number is only taken over for unique matches; unclear and
// multiple_matches keep it nil.
func (uc *ProcessUseCase) resolveLegacy(meta *domain.ExtractedMetadata) {
	match := uc.resolver.Resolve(*meta)
	meta.IsLegacy = true
	reason := match.Reason
	meta.LegacyMatchReason = &reason
	if match.Resolved() {
		meta.CustomerNr = match.CustomerNr
	}
	uc.logger.Debug("legacy resolution",
		"reason", match.Reason,
		"detail", match.ConfidenceDetail,
	)
}

func (uc *ProcessUseCase) checkDuplicate(ctx context.Context, meta domain.ExtractedMetadata) (*domain.IndexedDocument, error) {
	if meta.OrderNr == nil {
		return nil, nil
	}
	dup, err := uc.index.CheckDuplicate(ctx, *meta.OrderNr, meta.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	return dup, nil
}

// divertDuplicate moves the file into the duplicates area instead of the
// archive; the previously filed original is never overwritten.
func (uc *ProcessUseCase) divertDuplicate(path string, meta domain.ExtractedMetadata, dup *domain.IndexedDocument) (domain.IndexedDocument, ports.ProcessResult, error) {
	target := uc.router.EnsureUniquePath(filepath.Join(uc.cfg.DuplicatesDir, filepath.Base(path)))
	if err := uc.store.Move(path, target); err != nil {
		return domain.IndexedDocument{}, ports.ProcessResult{}, fmt.Errorf("move duplicate %s: %w", path, err)
	}

	hint := fmt.Sprintf("Duplikat: bereits indexiert als %s", dup.Filename)
	doc := buildIndexedDocument(path, target, meta, domain.StatusDuplicate)
	doc.Hint = domain.StrPtr(hint)

	result := ports.ProcessResult{
		Path:       path,
		TargetPath: target,
		Status:     domain.StatusDuplicate,
		Reason:     hint,
		Metadata:   meta,
	}
	return doc, result, nil
}

func (uc *ProcessUseCase) queueUnclearLegacy(ctx context.Context, target string, meta domain.ExtractedMetadata, decision ports.RouteDecision) error {
	matchReason := decision.Reason
	if meta.LegacyMatchReason != nil {
		matchReason = string(*meta.LegacyMatchReason)
	}
	entry := domain.UnclearLegacyEntry{
		Filename:     filepath.Base(target),
		FilePath:     target,
		OrderNr:      meta.OrderNr,
		OrderDate:    meta.OrderDate,
		CustomerName: meta.CustomerName,
		VIN:          meta.VIN,
		LicensePlate: meta.LicensePlate,
		Year:         meta.Year,
		DocumentType: domain.StrPtr(meta.DocumentType),
		MatchReason:  matchReason,
		Hint:         meta.Hint,
		Status:       domain.UnclearOpen,
	}
	if _, err := uc.index.AddUnclearLegacy(ctx, entry); err != nil {
		return fmt.Errorf("queue unclear legacy: %w", err)
	}
	return nil
}

func buildIndexedDocument(originalPath, targetPath string, meta domain.ExtractedMetadata, status domain.DocumentStatus) domain.IndexedDocument {
	var matchReason *string
	if meta.LegacyMatchReason != nil {
		matchReason = domain.StrPtr(string(*meta.LegacyMatchReason))
	}
	confidence := meta.Confidence
	return domain.IndexedDocument{
		Filename:     filepath.Base(targetPath),
		OriginalPath: originalPath,
		TargetPath:   targetPath,
		OrderNr:      meta.OrderNr,
		OrderDate:    meta.OrderDate,
		DocumentType: domain.StrPtr(meta.DocumentType),
		Year:         meta.Year,
		CustomerNr:   meta.CustomerNr,
		CustomerName: meta.CustomerName,
		VIN:          meta.VIN,
		LicensePlate: meta.LicensePlate,
		Odometer:     meta.Odometer,
		IsLegacy:     meta.IsLegacy,
		MatchReason:  matchReason,
		Confidence:   &confidence,
		Status:       status,
		Hint:         meta.Hint,
	}
}
