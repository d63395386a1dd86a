// Package service orchestrates uploads, filter compilation, query
// execution, and semantic analysis on top of the engine and metastore.
package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"
	"datareduce/internal/engine"
)

// Preview row limits. Callers outside the range are clamped, not rejected.
const (
	previewDefaultLimit = 200
	previewMinLimit     = 10
	previewMaxLimit     = 1000
)

// distinctMinLimit is lower than the preview floor: asking for a single
// distinct value is a legitimate request.
const distinctMinLimit = 1

// DatasetService handles dataset uploads and read-only inspection.
type DatasetService struct {
	store    UploadStore
	datasets domain.DatasetRepository
	engine   *engine.DuckDBEngine
}

// UploadStore persists raw uploads as canonical CSV files.
// Implemented by storage.Store.
type UploadStore interface {
	Save(id, filename string, r io.Reader) (*domain.Dataset, error)
	PathFor(id string) string
}

func NewDatasetService(store UploadStore, datasets domain.DatasetRepository, eng *engine.DuckDBEngine) *DatasetService {
	return &DatasetService{store: store, datasets: datasets, engine: eng}
}

// Upload stores the file, registers it in the metastore, and verifies the
// engine can derive a schema from it before reporting success.
func (s *DatasetService) Upload(ctx context.Context, filename string, r io.Reader) (*domain.Dataset, []domain.ColumnDescriptor, error) {
	id := uuid.NewString()

	ds, err := s.store.Save(id, filename, r)
	if err != nil {
		return nil, nil, err
	}

	// Past this point the canonical file exists but no registry row does
	// yet; failures must not leave it orphaned outside TTL coverage.
	columns, err := s.engine.Describe(ctx, domain.DatasetHandle{ID: ds.ID, Path: ds.Path})
	if err != nil {
		_ = os.Remove(ds.Path)
		return nil, nil, err
	}

	if err := s.datasets.Insert(ctx, ds); err != nil {
		_ = os.Remove(ds.Path)
		return nil, nil, fmt.Errorf("register dataset: %w", err)
	}
	return ds, columns, nil
}

// Resolve looks up a registered dataset and returns the handle the engine
// opens sessions against.
func (s *DatasetService) Resolve(ctx context.Context, id string) (domain.DatasetHandle, error) {
	return resolveDataset(ctx, s.datasets, id)
}

// List returns all registered datasets, newest first.
func (s *DatasetService) List(ctx context.Context) ([]domain.Dataset, error) {
	return s.datasets.List(ctx)
}

// Describe returns the dataset's live schema.
func (s *DatasetService) Describe(ctx context.Context, id string) ([]domain.ColumnDescriptor, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Describe(ctx, handle)
}

// Preview returns up to limit raw rows from the dataset. limit is clamped
// into [10, 1000]; zero means the default of 200.
func (s *DatasetService) Preview(ctx context.Context, id string, limit int) (*engine.Result, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}

	previewSQL := fmt.Sprintf("SELECT * FROM %s LIMIT ?", ddl.QuoteIdentifier(ddl.DatasetViewName))
	return s.engine.Query(ctx, handle, previewSQL, clampLimit(limit, previewDefaultLimit, previewMinLimit, previewMaxLimit))
}

// DistinctValues returns up to limit distinct non-null values of one
// column, ordered ascending. The column must exist in the live schema.
func (s *DatasetService) DistinctValues(ctx context.Context, id, column string, limit int) (*engine.Result, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}

	columns, err := s.engine.Describe(ctx, handle)
	if err != nil {
		return nil, err
	}
	if !domain.HasColumn(columns, column) {
		return nil, &domain.UnknownColumnError{Column: column}
	}

	distinctSQL := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT ?",
		ddl.QuoteIdentifier(column),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
		ddl.QuoteIdentifier(column),
	)
	return s.engine.Query(ctx, handle, distinctSQL, clampLimit(limit, previewDefaultLimit, distinctMinLimit, previewMaxLimit))
}

func resolveDataset(ctx context.Context, repo domain.DatasetRepository, id string) (domain.DatasetHandle, error) {
	ds, err := repo.Get(ctx, id)
	if err != nil {
		return domain.DatasetHandle{}, err
	}
	return domain.DatasetHandle{ID: ds.ID, Path: ds.Path}, nil
}

func clampLimit(limit, def, min, max int) int {
	if limit == 0 {
		return def
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
