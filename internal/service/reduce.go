package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"datareduce/internal/domain"
	"datareduce/internal/engine"
	"datareduce/internal/filter"
)

// ReduceService compiles filter rules against the live schema and drives
// them through the engine. Compilation always happens before execution, so
// grammar and schema errors surface without touching the data.
type ReduceService struct {
	engine    *engine.DuckDBEngine
	datasets  domain.DatasetRepository
	artifacts domain.ArtifactRepository
	outputDir string
}

func NewReduceService(eng *engine.DuckDBEngine, datasets domain.DatasetRepository, artifacts domain.ArtifactRepository, outputDir string) *ReduceService {
	return &ReduceService{engine: eng, datasets: datasets, artifacts: artifacts, outputDir: outputDir}
}

// Compile validates rules against the dataset's live schema and returns
// the parameterized predicate without executing anything.
func (s *ReduceService) Compile(ctx context.Context, id string, rules []domain.FilterRule, logic string) (domain.CompiledPredicate, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return domain.CompiledPredicate{}, err
	}
	return s.compile(ctx, handle, rules, logic)
}

// Preview compiles the rules and runs a count-only execution. Zero matched
// rows is a normal result.
func (s *ReduceService) Preview(ctx context.Context, id string, rules []domain.FilterRule, logic string) (domain.PreviewResult, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return domain.PreviewResult{}, err
	}

	predicate, err := s.compile(ctx, handle, rules, logic)
	if err != nil {
		return domain.PreviewResult{}, err
	}
	return s.engine.PreviewCount(ctx, handle, predicate)
}

// Export compiles the rules, writes the filtered rows to a file in the
// output directory, and records the artifact for TTL cleanup.
func (s *ReduceService) Export(ctx context.Context, id string, rules []domain.FilterRule, logic, format string) (*domain.ExportArtifact, error) {
	exportFormat, err := domain.ParseExportFormat(format)
	if err != nil {
		return nil, err
	}

	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}

	predicate, err := s.compile(ctx, handle, rules, logic)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Export(ctx, handle, predicate, exportFormat, s.outputDir)
	if err != nil {
		return nil, err
	}

	artifact := &domain.ExportArtifact{
		ID:        uuid.NewString(),
		DatasetID: handle.ID,
		Path:      result.Path,
		Filename:  result.Filename,
		Format:    exportFormat,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.artifacts.Insert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("record export artifact: %w", err)
	}
	return artifact, nil
}

func (s *ReduceService) compile(ctx context.Context, handle domain.DatasetHandle, rules []domain.FilterRule, logic string) (domain.CompiledPredicate, error) {
	parsedLogic, err := domain.ParseLogic(logic)
	if err != nil {
		return domain.CompiledPredicate{}, err
	}

	columns, err := s.engine.Describe(ctx, handle)
	if err != nil {
		return domain.CompiledPredicate{}, err
	}
	return filter.Compile(rules, parsedLogic, columns)
}
