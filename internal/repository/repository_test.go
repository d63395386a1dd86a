package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datareduce/internal/db"
	"datareduce/internal/domain"
)

// openPool opens a migrated metastore in a temp dir.
func openPool(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.sqlite")
	pool, err := db.OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, db.RunMigrations(pool))
	return pool
}

func TestDatasetRepo_RoundTrip(t *testing.T) {
	repo := NewDatasetRepo(openPool(t))
	ctx := context.Background()

	d := &domain.Dataset{
		ID:        "ds-1",
		Filename:  "orders.csv",
		Path:      "data/input/ds-1.csv",
		SizeBytes: 42,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Insert(ctx, d))

	got, err := repo.Get(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, d.Filename, got.Filename)
	assert.Equal(t, d.Path, got.Path)
	assert.Equal(t, d.SizeBytes, got.SizeBytes)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDatasetRepo_GetMissing(t *testing.T) {
	repo := NewDatasetRepo(openPool(t))

	_, err := repo.Get(context.Background(), "ghost")
	var notFound *domain.DatasetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestArtifactRepo_TTLListing(t *testing.T) {
	pool := openPool(t)
	datasets := NewDatasetRepo(pool)
	artifacts := NewArtifactRepo(pool)
	ctx := context.Background()

	require.NoError(t, datasets.Insert(ctx, &domain.Dataset{
		ID: "ds-1", Filename: "orders.csv", Path: "p", CreatedAt: time.Now(),
	}))

	old := &domain.ExportArtifact{
		ID: "a-old", DatasetID: "ds-1", Path: "out/a.csv", Filename: "a.csv",
		Format: domain.FormatCSV, CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := &domain.ExportArtifact{
		ID: "a-new", DatasetID: "ds-1", Path: "out/b.xlsx", Filename: "b.xlsx",
		Format: domain.FormatXLSX, CreatedAt: time.Now(),
	}
	require.NoError(t, artifacts.Insert(ctx, old))
	require.NoError(t, artifacts.Insert(ctx, fresh))

	expired, err := artifacts.ListOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "a-old", expired[0].ID)
	assert.Equal(t, domain.FormatCSV, expired[0].Format)

	require.NoError(t, artifacts.Delete(ctx, "a-old"))
	expired, err = artifacts.ListOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}
