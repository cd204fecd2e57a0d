package usecase

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
)

// ProcessBatch analyzes all files concurrently with a bounded worker pool and
// then files them sequentially, so filesystem moves and duplicate checks stay
// ordered. All index rows are persisted in a single transaction at the end.
// One unreadable file degrades to an empty analysis; it never fails the batch.
func (uc *ProcessUseCase) ProcessBatch(ctx context.Context, paths []string) ([]ports.ProcessResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	uc.observer.BatchStarted(len(paths))
	metas, err := uc.analyzeAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.IndexedDocument, 0, len(paths))
	results := make([]ports.ProcessResult, 0, len(paths))
	indexed := make([]int, 0, len(paths))
	for _, path := range paths {
		doc, result, err := uc.fileDocument(ctx, path, metas[path])
		if err != nil {
			uc.logger.Error("filing failed", "path", path, "error", err)
			uc.observer.DocumentFinished(string(domain.StatusError))
			results = append(results, ports.ProcessResult{
				Path:   path,
				Status: domain.StatusError,
				Reason: err.Error(),
			})
			continue
		}
		uc.observer.DocumentFinished(string(result.Status))
		docs = append(docs, doc)
		indexed = append(indexed, len(results))
		results = append(results, result)
	}

	if len(docs) > 0 {
		ids, err := uc.index.AddBatch(ctx, docs)
		if err != nil {
			return results, fmt.Errorf("index batch: %w", err)
		}
		for i, id := range ids {
			results[indexed[i]].DocumentID = id
		}
	}

	uc.logger.Info("batch processed", "total", len(paths), "indexed", len(docs))
	return results, nil
}

// analyzeAll runs text extraction and analysis for every path, keyed by path
// so results cannot be misattributed regardless of completion order.
func (uc *ProcessUseCase) analyzeAll(ctx context.Context, paths []string) (map[string]domain.ExtractedMetadata, error) {
	var mu sync.Mutex
	metas := make(map[string]domain.ExtractedMetadata, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.ExtractWorkers)
	for _, path := range paths {
		g.Go(func() error {
			uc.observer.DocumentStarted()
			meta := uc.analyze(ctx, path)
			mu.Lock()
			metas[path] = meta
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}
	return metas, nil
}
