package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"datareduce/internal/domain"
)

// reduceRequest is the body shared by preview and export. Logic defaults
// to AND; Format is only read by export.
type reduceRequest struct {
	Rules  []domain.FilterRule `json:"rules"`
	Logic  string              `json:"logic"`
	Format string              `json:"format"`
}

func decodeReduceRequest(r *http.Request) (reduceRequest, error) {
	var req reduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return reduceRequest{}, domain.ErrValidation("request body is not valid JSON")
	}
	return req, nil
}

// previewReduce compiles the rules and returns the matched row count
// without materializing anything.
func (h *Handler) previewReduce(w http.ResponseWriter, r *http.Request) {
	req, err := decodeReduceRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.reduce.Preview(r.Context(), chi.URLParam(r, "datasetID"), req.Rules, req.Logic)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		MatchedRows int64 `json:"matched_rows"`
		ElapsedMS   int64 `json:"elapsed_ms"`
	}{MatchedRows: result.MatchedRows, ElapsedMS: result.Elapsed.Milliseconds()})
}

// exportReduce writes the filtered dataset and streams the file back.
func (h *Handler) exportReduce(w http.ResponseWriter, r *http.Request) {
	req, err := decodeReduceRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Format == "" {
		req.Format = string(domain.FormatCSV)
	}

	artifact, err := h.reduce.Export(r.Context(), chi.URLParam(r, "datasetID"), req.Rules, req.Logic, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		writeError(w, domain.ErrExecutionFailed(err, "export artifact could not be read back"))
		return
	}
	defer f.Close() //nolint:errcheck

	w.Header().Set("Content-Type", contentTypeFor(artifact.Format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(artifact.Filename)+`"`)
	http.ServeContent(w, r, artifact.Filename, artifact.CreatedAt, f)
}

func contentTypeFor(format domain.ExportFormat) string {
	if format == domain.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
