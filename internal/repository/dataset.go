// Package repository implements metastore persistence for datasets and
// export artifacts over database/sql.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"datareduce/internal/domain"
)

// Compile-time check.
var _ domain.DatasetRepository = (*DatasetRepo)(nil)

// DatasetRepo persists dataset registrations.
type DatasetRepo struct {
	db *sql.DB
}

// NewDatasetRepo creates a DatasetRepo over the given pool.
func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Insert registers a new dataset.
func (r *DatasetRepo) Insert(ctx context.Context, d *domain.Dataset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO datasets (id, filename, path, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Filename, d.Path, d.SizeBytes, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// Get returns one dataset by id, or DatasetNotFound.
func (r *DatasetRepo) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	var d domain.Dataset
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, path, size_bytes, created_at FROM datasets WHERE id = ?`, id,
	).Scan(&d.ID, &d.Filename, &d.Path, &d.SizeBytes, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound("dataset %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return &d, nil
}

// List returns all registered datasets, newest first.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, path, size_bytes, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Dataset
	for rows.Next() {
		var d domain.Dataset
		if err := rows.Scan(&d.ID, &d.Filename, &d.Path, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
