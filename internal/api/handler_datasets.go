package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"datareduce/internal/domain"
)

// uploadMemoryLimit is how much of a multipart body is buffered in memory
// before spilling to disk.
const uploadMemoryLimit = 8 << 20

type datasetResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func datasetToAPI(d *domain.Dataset) datasetResponse {
	return datasetResponse{
		ID:        d.ID,
		Filename:  d.Filename,
		SizeBytes: d.SizeBytes,
		CreatedAt: d.CreatedAt,
	}
}

// uploadDataset accepts a multipart "file" field, stores it, and returns
// the registration together with the derived schema.
func (h *Handler) uploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, domain.ErrValidation("request is not valid multipart form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrValidation("multipart field %q is required", "file"))
		return
	}
	defer file.Close() //nolint:errcheck

	ds, columns, err := h.datasets.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Dataset datasetResponse           `json:"dataset"`
		Columns []domain.ColumnDescriptor `json:"columns"`
	}{Dataset: datasetToAPI(ds), Columns: columns})
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]datasetResponse, len(datasets))
	for i := range datasets {
		out[i] = datasetToAPI(&datasets[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Datasets []datasetResponse `json:"datasets"`
	}{Datasets: out})
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	columns, err := h.datasets.Describe(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Columns []domain.ColumnDescriptor `json:"columns"`
	}{Columns: columns})
}

func (h *Handler) previewDataset(w http.ResponseWriter, r *http.Request) {
	result, err := h.datasets.Preview(r.Context(), chi.URLParam(r, "datasetID"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) distinctValues(w http.ResponseWriter, r *http.Request) {
	result, err := h.datasets.DistinctValues(r.Context(),
		chi.URLParam(r, "datasetID"), chi.URLParam(r, "column"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}

	values := make([]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		values[i] = row[0]
	}
	writeJSON(w, http.StatusOK, struct {
		Column string        `json:"column"`
		Values []interface{} `json:"values"`
	}{Column: chi.URLParam(r, "column"), Values: values})
}
