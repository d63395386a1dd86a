package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"datareduce/internal/domain"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// Compile-stage errors are client errors; execution failures after a
// successful compile are server errors.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.DatasetNotFoundError
	var schemaUnavailable *domain.SchemaUnavailableError
	var unknownColumn *domain.UnknownColumnError
	var unsupportedOp *domain.UnsupportedOperatorError
	var malformed *domain.MalformedOperandError
	var validation *domain.ValidationError
	var blocked *domain.MetricBlockedError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &schemaUnavailable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unknownColumn),
		errors.As(err, &unsupportedOp),
		errors.As(err, &malformed),
		errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &blocked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the error body. Internal
// errors are reported with their sanitized message only; wrapped engine
// detail stays in the server log.
func writeError(w http.ResponseWriter, err error) {
	code := httpStatusFromDomainError(err)
	writeJSON(w, code, errorResponse{Code: code, Message: err.Error()})
}
