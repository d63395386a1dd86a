// Package storage owns the dataset file area: saving uploads and
// normalizing them into the canonical CSV form the engine reads.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"datareduce/internal/domain"
)

// Store writes uploads into the input directory. Every stored dataset is
// a canonical CSV named <id>.csv regardless of the upload format, so the
// engine never needs to care what was uploaded.
type Store struct {
	inputDir string
	maxBytes int64
}

// NewStore creates a Store rooted at inputDir, creating it if needed.
func NewStore(inputDir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}
	return &Store{inputDir: inputDir, maxBytes: maxBytes}, nil
}

// PathFor returns the canonical CSV path for a dataset id.
func (s *Store) PathFor(id string) string {
	return filepath.Join(s.inputDir, id+".csv")
}

// Save persists one upload under the given dataset id. CSV uploads are
// stored as-is; xlsx uploads are converted sheet-to-CSV. Legacy .xls is
// rejected — there is no maintained Go reader for the binary format.
func (s *Store) Save(id, filename string, r io.Reader) (*domain.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		size int64
		err  error
	)
	switch ext {
	case ".csv":
		size, err = s.saveCSV(id, r)
	case ".xlsx":
		size, err = s.saveXLSX(id, r)
	case ".xls":
		return nil, domain.ErrValidation("legacy .xls uploads are not supported; save as .xlsx or .csv")
	default:
		return nil, domain.ErrValidation("only csv and xlsx files are supported, got %q", ext)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		ID:        id,
		Filename:  filename,
		Path:      s.PathFor(id),
		SizeBytes: size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Store) saveCSV(id string, r io.Reader) (int64, error) {
	out, err := os.Create(s.PathFor(id))
	if err != nil {
		return 0, fmt.Errorf("create dataset file: %w", err)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return 0, fmt.Errorf("write dataset file: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(s.PathFor(id))
		return 0, domain.ErrValidation("upload exceeds the %d byte limit", s.maxBytes)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close dataset file: %w", err)
	}
	return n, nil
}

// saveXLSX converts the first sheet into the canonical CSV. The whole
// workbook is decoded in memory — xlsx is not a streaming format, so
// conversion memory scales with the sheet size.
func (s *Store) saveXLSX(id string, r io.Reader) (int64, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return 0, domain.ErrValidation("could not read xlsx upload: file is not a valid workbook")
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, domain.ErrValidation("xlsx upload contains no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return 0, domain.ErrValidation("could not read xlsx sheet %q", sheets[0])
	}
	defer rows.Close() //nolint:errcheck

	out, err := os.Create(s.PathFor(id))
	if err != nil {
		return 0, fmt.Errorf("create dataset file: %w", err)
	}
	defer out.Close() //nolint:errcheck

	w := csv.NewWriter(out)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return 0, domain.ErrValidation("could not read xlsx row: %v", err)
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush dataset file: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close dataset file: %w", err)
	}

	info, err := os.Stat(s.PathFor(id))
	if err != nil {
		return 0, fmt.Errorf("stat dataset file: %w", err)
	}
	return info.Size(), nil
}
