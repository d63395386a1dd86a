// Package app wires repositories, services, and background jobs from the
// handles main() provides.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"datareduce/internal/cleanup"
	"datareduce/internal/config"
	"datareduce/internal/engine"
	"datareduce/internal/repository"
	"datareduce/internal/service"
	"datareduce/internal/storage"
)

// Deps holds the external dependencies main() must provide: config, the
// metastore pools, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully wired application.
type App struct {
	Datasets *service.DatasetService
	Reduce   *service.ReduceService
	Analysis *service.AnalysisService
	Janitor  *cleanup.Janitor
}

// New wires everything. Read-only services resolve datasets through the
// read pool; the upload path and artifact records go through the write
// pool.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	store, err := storage.NewStore(cfg.DataInputDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init upload store: %w", err)
	}
	if err := os.MkdirAll(cfg.DataOutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("init output dir: %w", err)
	}

	eng := engine.NewDuckDBEngine()

	datasetWrites := repository.NewDatasetRepo(deps.WriteDB)
	datasetReads := repository.NewDatasetRepo(deps.ReadDB)
	artifactRepo := repository.NewArtifactRepo(deps.WriteDB)

	return &App{
		Datasets: service.NewDatasetService(store, datasetWrites, eng),
		Reduce:   service.NewReduceService(eng, datasetReads, artifactRepo, cfg.DataOutputDir),
		Analysis: service.NewAnalysisService(eng, datasetReads),
		Janitor: cleanup.NewJanitor(artifactRepo, cfg.ExportTTL,
			deps.Logger.With("component", "janitor")),
	}, nil
}
