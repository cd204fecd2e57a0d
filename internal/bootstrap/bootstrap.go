package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SHP-ART/werkstattarchiv/internal/config"
	"github.com/SHP-ART/werkstattarchiv/internal/core/ports"
	"github.com/SHP-ART/werkstattarchiv/internal/core/usecase"
	"github.com/SHP-ART/werkstattarchiv/internal/export"
	"github.com/SHP-ART/werkstattarchiv/internal/infrastructure/extractor/pdftext"
	"github.com/SHP-ART/werkstattarchiv/internal/infrastructure/index/sqlite"
	"github.com/SHP-ART/werkstattarchiv/internal/infrastructure/registry/csvstore"
	"github.com/SHP-ART/werkstattarchiv/internal/infrastructure/storage/localfs"
	"github.com/SHP-ART/werkstattarchiv/internal/observability/metrics"
	"github.com/SHP-ART/werkstattarchiv/internal/patterns"
)

// App wires the full object graph once; commands pick the parts they need.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Patterns  *patterns.Registry
	Templates *patterns.Manager
	Customers ports.CustomerRegistry
	Vehicles  ports.VehicleRegistry
	Index     ports.DocumentIndex
	Analyzer  ports.DocumentAnalyzer
	Resolver  ports.LegacyResolver
	Router    ports.DocumentRouter
	Processor ports.ArchiveProcessor
	Export    *export.Service
	Metrics   *metrics.ArchiveMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlite.OpenDB(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	index := sqlite.NewIndex(db, logger)
	if err := index.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure index schema: %w", err)
	}

	customers, err := csvstore.NewCustomerRegistry(cfg.CustomersFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load customer registry: %w", err)
	}
	vehicles, err := csvstore.NewVehicleRegistry(cfg.VehiclesFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load vehicle registry: %w", err)
	}

	registry := patterns.NewRegistry()
	templates := patterns.NewManager(registry)
	store := localfs.New()
	extractor := pdftext.New()

	analyzer := usecase.NewAnalyzeUseCase(extractor, templates, usecase.DefaultConfidenceWeights(), logger)
	resolver := usecase.NewLegacyResolveUseCase(customers, vehicles, logger)
	router := usecase.NewRouteUseCase(customers, store, usecase.RouterConfig{
		RootDir:        cfg.ArchiveRoot,
		UnclearDir:     cfg.UnclearDir,
		ClearThreshold: cfg.ClearThreshold,
	})
	archiveMetrics := metrics.NewArchiveMetrics()
	processor := usecase.NewProcessUseCase(analyzer, resolver, router, index, store, archiveMetrics, logger, usecase.ProcessConfig{
		DuplicatesDir:  cfg.DuplicatesDir,
		TemplateName:   cfg.Template,
		ExtractWorkers: cfg.ExtractWorkers,
	})

	return &App{
		Config:    cfg,
		Logger:    logger,
		Patterns:  registry,
		Templates: templates,
		Customers: customers,
		Vehicles:  vehicles,
		Index:     index,
		Analyzer:  analyzer,
		Resolver:  resolver,
		Router:    router,
		Processor: processor,
		Export:    export.NewService(index, logger),
		Metrics:   archiveMetrics,

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
