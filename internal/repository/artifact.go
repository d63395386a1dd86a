package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"datareduce/internal/domain"
)

// Compile-time check.
var _ domain.ArtifactRepository = (*ArtifactRepo)(nil)

// ArtifactRepo persists export artifact records for TTL cleanup.
type ArtifactRepo struct {
	db *sql.DB
}

// NewArtifactRepo creates an ArtifactRepo over the given pool.
func NewArtifactRepo(db *sql.DB) *ArtifactRepo {
	return &ArtifactRepo{db: db}
}

// Insert records a written export artifact.
func (r *ArtifactRepo) Insert(ctx context.Context, a *domain.ExportArtifact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO export_artifacts (id, dataset_id, path, filename, format, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.DatasetID, a.Path, a.Filename, string(a.Format), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export artifact: %w", err)
	}
	return nil
}

// ListOlderThan returns artifacts created before cutoff.
func (r *ArtifactRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.ExportArtifact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dataset_id, path, filename, format, created_at
		 FROM export_artifacts WHERE created_at < ? ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list export artifacts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ExportArtifact
	for rows.Next() {
		var a domain.ExportArtifact
		var format string
		if err := rows.Scan(&a.ID, &a.DatasetID, &a.Path, &a.Filename, &format, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export artifact: %w", err)
		}
		a.Format = domain.ExportFormat(format)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes one artifact record.
func (r *ArtifactRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM export_artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete export artifact: %w", err)
	}
	return nil
}
