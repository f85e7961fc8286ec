package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
	"github.com/Cocadite/api-pe-na-porta/internal/store"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// WriteError writes the {"error": msg} payload used by every failure response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeError(w, status, msg)
}

// readJSON decodes a single JSON value from a size-capped body.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// writeServiceError maps lifecycle and storage failures to responses.
func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrCorrupt):
		log.WithError(err).Error("storage corrupt")
		writeError(w, http.StatusInternalServerError, "storage corrupt")
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type okResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}
