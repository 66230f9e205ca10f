package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"budgetd/internal/core"
	"budgetd/internal/log"
)

// maxBodySize caps request bodies; nothing this API accepts is large.
const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Encode response failed", log.FieldError, err)
	}
}

// errMalformedBody marks bodies the decoder could not parse at all, as
// opposed to well-formed JSON that fails domain validation.
var errMalformedBody = errors.New("malformed request body")

// writeError maps domain errors onto status codes. Unparseable bodies are
// 400, validation failures are 422, missing or foreign-owned records are an
// indistinguishable 404, anything else is a 500 with the detail kept out of
// the response body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformedBody):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case core.IsValidation(err):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields and
// trailing garbage. An empty body leaves dst zeroed; per-field validation
// decides whether that is acceptable.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: expected a single JSON object", errMalformedBody)
	}
	return nil
}

// pathID extracts a positive integer path segment.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalidf("invalid %s", name)
	}
	return id, nil
}
