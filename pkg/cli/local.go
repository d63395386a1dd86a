package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"datareduce/internal/domain"
)

// localID is the dataset id used when the CLI operates on a file path
// instead of a registered upload.
const localID = "local"

// localRegistry adapts a single on-disk file to the DatasetRepository
// interface so the services can run without a metastore.
type localRegistry struct {
	ds domain.Dataset
}

func newLocalRegistry(path string) (*localRegistry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.ErrDatasetNotFound("file %s not found", path)
	}
	return &localRegistry{ds: domain.Dataset{
		ID:        localID,
		Filename:  filepath.Base(path),
		Path:      path,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime().UTC(),
	}}, nil
}

func (r *localRegistry) Insert(context.Context, *domain.Dataset) error { return nil }

func (r *localRegistry) Get(_ context.Context, id string) (*domain.Dataset, error) {
	if id != r.ds.ID {
		return nil, domain.ErrDatasetNotFound("dataset %s not found", id)
	}
	ds := r.ds
	return &ds, nil
}

func (r *localRegistry) List(context.Context) ([]domain.Dataset, error) {
	return []domain.Dataset{r.ds}, nil
}

// discardArtifacts satisfies ArtifactRepository for one-shot CLI exports,
// where no TTL cleanup ever runs.
type discardArtifacts struct{}

func (discardArtifacts) Insert(context.Context, *domain.ExportArtifact) error { return nil }

func (discardArtifacts) ListOlderThan(context.Context, time.Time) ([]domain.ExportArtifact, error) {
	return nil, nil
}

func (discardArtifacts) Delete(context.Context, string) error { return nil }

var (
	_ domain.DatasetRepository  = (*localRegistry)(nil)
	_ domain.ArtifactRepository = discardArtifacts{}
)
